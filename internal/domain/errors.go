package domain

import "errors"

// Sentinel errors for every caller-visible failure. Services wrap them with
// context via fmt.Errorf("...: %w", err); the HTTP layer matches with
// errors.Is and maps to status codes.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")

	// Code verification failures.
	ErrExpired         = errors.New("code expired")
	ErrAlreadyConsumed = errors.New("code already consumed")
	ErrMismatch        = errors.New("code mismatch")
	ErrRateLimited     = errors.New("too many code requests")

	// Reservation failures.
	ErrSlotTaken        = errors.New("slot already booked")
	ErrInvalidSlot      = errors.New("slot not in schedule")
	ErrTooLate          = errors.New("slot already started")
	ErrAlreadyCancelled = errors.New("booking already cancelled")
	ErrNotOwner         = errors.New("booking owned by another identity")

	// A storage timeout or outage is retriable by the caller and must never
	// masquerade as ErrSlotTaken.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
