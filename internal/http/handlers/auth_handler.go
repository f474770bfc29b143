package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jitsports/sportsroom/internal/http/response"
	"github.com/jitsports/sportsroom/internal/otp"
	"github.com/jitsports/sportsroom/pkg/logger"
)

type AuthHandler struct {
	otpService otp.Service
}

func NewAuthHandler(otpService otp.Service) *AuthHandler {
	return &AuthHandler{otpService: otpService}
}

type requestCodeReq struct {
	Email string `json:"email"`
}

type verifyCodeReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// RequestCode handles POST /auth/request-code
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if err := h.otpService.RequestCode(r.Context(), req.Email); err != nil {
		logger.WarnContext(r.Context(), "Code request failed", "error", err)
		response.FromError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// VerifyCode handles POST /auth/verify
func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	session, err := h.otpService.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		logger.WarnContext(r.Context(), "Code verification failed", "error", err)
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, session)
}
