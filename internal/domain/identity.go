package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Identity is created implicitly the first time a code is requested for an
// email address. It becomes provisioned on the first successful verification
// and is never deleted.
type Identity struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name,omitempty"`
	Provisioned bool      `json:"provisioned"`
	CreatedAt   time.Time `json:"created_at"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail lowercases and trims an address. All lookups and storage go
// through this so the same mailbox always resolves to the same identity.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	return nil
}
