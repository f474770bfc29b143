package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jitsports/sportsroom/internal/booking"
	"github.com/jitsports/sportsroom/internal/http/response"
	"github.com/jitsports/sportsroom/pkg/logger"
)

type BookingsHandler struct {
	bookingService booking.Service
}

func NewBookingsHandler(bookingService booking.Service) *BookingsHandler {
	return &BookingsHandler{bookingService: bookingService}
}

// ListFacilities handles GET /facilities
func (h *BookingsHandler) ListFacilities(w http.ResponseWriter, r *http.Request) {
	facilities, err := h.bookingService.ListFacilities(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to list facilities", "error", err)
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, facilities)
}

// ListAvailability handles GET /facilities/{slug}/availability?date=YYYY-MM-DD
func (h *BookingsHandler) ListAvailability(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	date := r.URL.Query().Get("date")
	if date == "" {
		response.BadRequest(w, "date query parameter is required")
		return
	}

	availability, err := h.bookingService.ListAvailability(r.Context(), slug, date)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, availability)
}

type reserveReq struct {
	Facility string `json:"facility"`
	Date     string `json:"date"`
	Slot     string `json:"slot"`
}

// Reserve handles POST /bookings
func (h *BookingsHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	claims := sessionClaims(r)
	if claims == nil {
		response.Unauthorized(w, "session required")
		return
	}

	var req reserveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	b, err := h.bookingService.Reserve(r.Context(), claims.Sub, req.Facility, req.Date, req.Slot)
	if err != nil {
		logger.WarnContext(r.Context(), "Reservation failed", "error", err, "facility", req.Facility)
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, b)
}

// Cancel handles DELETE /bookings/{id}
func (h *BookingsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := sessionClaims(r)
	if claims == nil {
		response.Unauthorized(w, "session required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid booking id")
		return
	}

	if err := h.bookingService.Cancel(r.Context(), claims.Sub, id); err != nil {
		logger.WarnContext(r.Context(), "Cancellation failed", "error", err, "booking_id", id)
		response.FromError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListBookings handles GET /bookings
func (h *BookingsHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	claims := sessionClaims(r)
	if claims == nil {
		response.Unauthorized(w, "session required")
		return
	}

	list, err := h.bookingService.ListBookings(r.Context(), claims.Sub)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to list bookings", "error", err)
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, list)
}
