package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jitsports/sportsroom/internal/domain"
	"github.com/jitsports/sportsroom/pkg/logger"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Common error codes
const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeSlotTaken       = "SLOT_TAKEN"
	CodeInvalidSlot     = "INVALID_SLOT"
	CodeTooLate         = "TOO_LATE"
	CodeCancelled       = "ALREADY_CANCELLED"
	CodeExpired         = "CODE_EXPIRED"
	CodeConsumed        = "CODE_CONSUMED"
	CodeMismatch        = "CODE_MISMATCH"
	CodeRateLimit       = "RATE_LIMIT_EXCEEDED"
	CodeStorageDown     = "STORAGE_UNAVAILABLE"
	CodeInternalError   = "INTERNAL_ERROR"
)

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code}); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// FromError maps the core error taxonomy onto HTTP statuses. Anything
// unrecognized is a 500 with no internals leaked.
func FromError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeInvalidInput)
	case errors.Is(err, domain.ErrInvalidSlot):
		WriteError(w, http.StatusBadRequest, "slot is not bookable", CodeInvalidSlot)
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not found", CodeNotFound)
	case errors.Is(err, domain.ErrExpired):
		WriteError(w, http.StatusGone, "code has expired", CodeExpired)
	case errors.Is(err, domain.ErrAlreadyConsumed):
		WriteError(w, http.StatusUnprocessableEntity, "code already used", CodeConsumed)
	case errors.Is(err, domain.ErrMismatch):
		WriteError(w, http.StatusUnprocessableEntity, "incorrect code", CodeMismatch)
	case errors.Is(err, domain.ErrSlotTaken):
		WriteError(w, http.StatusConflict, "slot is already booked", CodeSlotTaken)
	case errors.Is(err, domain.ErrTooLate):
		WriteError(w, http.StatusConflict, "slot has already started", CodeTooLate)
	case errors.Is(err, domain.ErrAlreadyCancelled):
		WriteError(w, http.StatusConflict, "booking is already cancelled", CodeCancelled)
	case errors.Is(err, domain.ErrNotOwner):
		WriteError(w, http.StatusForbidden, "booking belongs to another account", CodeForbidden)
	case errors.Is(err, domain.ErrRateLimited):
		WriteError(w, http.StatusTooManyRequests, "too many code requests, try again later", CodeRateLimit)
	case errors.Is(err, domain.ErrStorageUnavailable):
		WriteError(w, http.StatusServiceUnavailable, "storage temporarily unavailable, retry with backoff", CodeStorageDown)
	default:
		WriteError(w, http.StatusInternalServerError, "internal error", CodeInternalError)
	}
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}
