package mailer

import "time"

// Service delivers the two messages the system sends: a one-time code and a
// booking confirmation or cancellation notice. Implementations are picked by
// config in the notify worker.
type Service interface {
	SendCode(toEmail, code string, expiresAt time.Time) error
	SendBookingConfirmation(toEmail, facility string, slotStart time.Time) error
	SendBookingCancellation(toEmail, facility string, slotStart time.Time) error
}
