package mailer

import (
	"fmt"
	"time"

	"github.com/jitsports/sportsroom/pkg/logger"
)

// DevMailer prints messages to the log instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendCode(toEmail, code string, expiresAt time.Time) error {
	logger.Info("📧 [DEV MAIL] One-Time Code",
		"to", toEmail,
		"code", code,
		"expires_at", expiresAt,
	)

	fmt.Printf("\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"📧 ONE-TIME CODE (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"To: %s\n"+
		"Subject: Your Sports Room login code\n"+
		"\n"+
		"Code: %s\n"+
		"Expires: %s\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		toEmail, code, expiresAt.Format(time.RFC3339))

	return nil
}

func (d *DevMailer) SendBookingConfirmation(toEmail, facility string, slotStart time.Time) error {
	logger.Info("📧 [DEV MAIL] Booking Confirmation",
		"to", toEmail,
		"facility", facility,
		"slot_start", slotStart,
	)

	fmt.Printf("\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"📧 BOOKING CONFIRMATION (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"To: %s\n"+
		"Subject: Booking Confirmation for %s\n"+
		"\n"+
		"Facility: %s\n"+
		"Time: %s\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		toEmail, facility, facility, slotStart.Format(time.RFC1123))

	return nil
}

func (d *DevMailer) SendBookingCancellation(toEmail, facility string, slotStart time.Time) error {
	logger.Info("📧 [DEV MAIL] Booking Cancellation",
		"to", toEmail,
		"facility", facility,
		"slot_start", slotStart,
	)
	return nil
}
