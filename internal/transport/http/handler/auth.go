package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-otp-auth/internal/application/auth"
	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/pkg/validate"
	"github.com/go-otp-auth/internal/transport/http/middleware"
)

// AuthHandler serves the /auth endpoints.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.Signup(r.Context(), req); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP sent to your phone. Please verify to complete registration."})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifySignupRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.VerifySignup(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, TokenEnvelope{Message: "User registered successfully", Token: res.Token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	token, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenEnvelope{Token: token})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), req); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP sent to your phone number"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password reset successfully"})
}

func (h *AuthHandler) ForwardMessage(w http.ResponseWriter, r *http.Request) {
	var req domain.BroadcastRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.BroadcastMessage(r.Context(), req)
	var de *domain.DeliveryError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, BroadcastEnvelope{
			Message:   fmt.Sprintf("Message forwarded to %d users", res.Delivered),
			Delivered: res.Delivered,
			Total:     res.Recipients,
		})
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "InvalidInput", "Text and sender phone number are required")
	case errors.As(err, &de):
		slog.Error("broadcast incomplete", "delivered", de.Delivered, "total", de.Total, "err", de.Err)
		writeJSON(w, http.StatusInternalServerError, BroadcastEnvelope{
			Message:   "Server error while forwarding message",
			Code:      "DeliveryError",
			Delivered: de.Delivered,
			Total:     de.Total,
		})
	default:
		httpError(w, r, err)
	}
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "Unauthorized")
		return
	}
	u, err := h.svc.Me(r.Context(), claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NotFound", "User not found")
		return
	}
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: u})
}

// decode reads a JSON body into dst and validates it, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidInput", "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidInput", err.Error())
		return false
	}
	return true
}
