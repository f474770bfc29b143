package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	loc     *time.Location
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string, loc *time.Location) *MailerSendClient {
	if loc == nil {
		loc = time.UTC
	}
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
		loc: loc,
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendCode(toEmail, code string, expiresAt time.Time) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	minutes := int(time.Until(expiresAt).Round(time.Minute).Minutes())
	subject := "Your Sports Room login code"
	html := fmt.Sprintf(`
		<h2>Your Sports Room Login Code</h2>
		<p>Your one-time code is: <strong style="font-size: 24px;">%s</strong></p>
		<p>This code will expire in %d minutes.</p>
		<p>If you didn't request a code, you can safely ignore this email.</p>
	`, code, minutes)
	text := fmt.Sprintf("Your one-time code is: %s\nThis code will expire in %d minutes.", code, minutes)

	return m.sendEmail(toEmail, subject, text, html)
}

func (m *MailerSendClient) SendBookingConfirmation(toEmail, facility string, slotStart time.Time) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	local := slotStart.In(m.loc)
	dateStr := local.Format("Monday, January 2, 2006")
	timeStr := local.Format("3:04 PM")

	subject := fmt.Sprintf("Booking Confirmation for %s", facility)
	html := fmt.Sprintf(`
		<h2>Your booking is confirmed!</h2>
		<p>Facility: <strong>%s</strong></p>
		<p>Date: %s</p>
		<p>Time: %s</p>
		<p>We look forward to seeing you.</p>
	`, facility, dateStr, timeStr)
	text := fmt.Sprintf("Your booking is confirmed!\n\nFacility: %s\nDate: %s\nTime: %s", facility, dateStr, timeStr)

	return m.sendEmail(toEmail, subject, text, html)
}

func (m *MailerSendClient) SendBookingCancellation(toEmail, facility string, slotStart time.Time) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	local := slotStart.In(m.loc)
	subject := fmt.Sprintf("Booking Cancelled: %s", facility)
	text := fmt.Sprintf("Your booking for %s on %s has been cancelled.",
		facility, local.Format("Monday, January 2, 2006 at 3:04 PM"))

	return m.sendEmail(toEmail, subject, text, "")
}

func (m *MailerSendClient) sendEmail(toEmail, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Email: toEmail}})
	msg.SetSubject(subject)

	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
