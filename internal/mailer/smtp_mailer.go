package mailer

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

type SMTPMailer struct {
	Host   string
	Port   int
	From   string
	User   string
	Pass   string
	UseTLS bool

	loc *time.Location
}

func NewSMTPMailer(host string, port int, from, user, pass string, useTLS bool, loc *time.Location) *SMTPMailer {
	if loc == nil {
		loc = time.UTC
	}
	return &SMTPMailer{
		Host:   strings.TrimSpace(host),
		Port:   port,
		From:   strings.TrimSpace(from),
		User:   strings.TrimSpace(user),
		Pass:   strings.TrimSpace(pass),
		UseTLS: useTLS,
		loc:    loc,
	}
}

func (s *SMTPMailer) SendCode(toEmail, code string, expiresAt time.Time) error {
	subject := "Your Sports Room login code"
	minutes := int(time.Until(expiresAt).Round(time.Minute).Minutes())
	text := fmt.Sprintf("Your one-time code is: %s\nThis code will expire in %d minutes.", code, minutes)
	html := fmt.Sprintf(`
		<h2>Your Sports Room Login Code</h2>
		<p>Your one-time code is: <strong style="font-size: 24px;">%s</strong></p>
		<p>This code will expire in %d minutes.</p>
		<p>If you didn't request a code, you can safely ignore this email.</p>
	`, code, minutes)

	return s.sendEmail(toEmail, subject, text, html)
}

func (s *SMTPMailer) SendBookingConfirmation(toEmail, facility string, slotStart time.Time) error {
	local := slotStart.In(s.loc)
	dateStr := local.Format("Monday, January 2, 2006")
	timeStr := local.Format("3:04 PM")

	subject := fmt.Sprintf("Booking Confirmation for %s", facility)
	text := fmt.Sprintf("Hi %s,\nYour booking is confirmed!\n\nFacility: %s\nDate: %s\nTime: %s\n\nWe look forward to seeing you.\nThanks,\nThe Sports Room Team",
		strings.Split(toEmail, "@")[0], facility, dateStr, timeStr)
	html := fmt.Sprintf(`
		<h2>Your booking is confirmed!</h2>
		<p>Facility: <strong>%s</strong></p>
		<p>Date: %s</p>
		<p>Time: %s</p>
		<p>We look forward to seeing you.</p>
	`, facility, dateStr, timeStr)

	return s.sendEmail(toEmail, subject, text, html)
}

func (s *SMTPMailer) SendBookingCancellation(toEmail, facility string, slotStart time.Time) error {
	local := slotStart.In(s.loc)
	subject := fmt.Sprintf("Booking Cancelled: %s", facility)
	text := fmt.Sprintf("Your booking for %s on %s has been cancelled.",
		facility, local.Format("Monday, January 2, 2006 at 3:04 PM"))

	return s.sendEmail(toEmail, subject, text, "")
}

func (s *SMTPMailer) sendEmail(toEmail, subject, text, html string) error {
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return fmt.Errorf("empty recipient email")
	}

	var buf bytes.Buffer
	boundary := "mixed-boundary"

	fmt.Fprintf(&buf, "From: %s\r\n", s.From)
	fmt.Fprintf(&buf, "To: %s\r\n", toEmail)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", text)

	if html != "" {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: text/html; charset=utf-8\r\n\r\n")
		fmt.Fprintf(&buf, "%s\r\n\r\n", html)
	}

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	// Mailpit or development SMTP (no auth, no TLS)
	if !s.UseTLS && s.User == "" {
		return smtp.SendMail(addr, nil, s.From, []string{toEmail}, buf.Bytes())
	}

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}

	// Try plain SMTP first (with STARTTLS if supported)
	if err := smtp.SendMail(addr, auth, s.From, []string{toEmail}, buf.Bytes()); err == nil {
		return nil
	}

	// Fallback to implicit TLS (port 465)
	if s.UseTLS {
		tlsCfg := &tls.Config{ServerName: s.Host}
		conn, err := tls.Dial("tcp", addr, tlsCfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		c, err := smtp.NewClient(conn, s.Host)
		if err != nil {
			return err
		}

		if s.User != "" {
			if err := c.Auth(auth); err != nil {
				return err
			}
		}

		if err := c.Mail(s.From); err != nil {
			return err
		}
		if err := c.Rcpt(toEmail); err != nil {
			return err
		}

		w, err := c.Data()
		if err != nil {
			return err
		}

		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}

		return w.Close()
	}

	return fmt.Errorf("smtp send failed")
}
