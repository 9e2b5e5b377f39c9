package handler

import (
	"errors"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-otp-auth/internal/domain"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrAlreadyExists, http.StatusBadRequest, "AlreadyExists", "User already exists"},
	{domain.ErrNoPendingRequest, http.StatusBadRequest, "NoPendingRequest", "No pending registration found for this phone number"},
	{domain.ErrInvalidCode, http.StatusBadRequest, "InvalidCode", "Invalid OTP"},
	{domain.ErrInvalidCredentials, http.StatusBadRequest, "InvalidCredentials", "Invalid credentials"},
	{domain.ErrNotVerified, http.StatusBadRequest, "NotVerified", "Please verify your account first"},
	{domain.ErrNotFound, http.StatusBadRequest, "NotFound", "User not found"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "InvalidInput", "Invalid input"},
	{domain.ErrNoRecipients, http.StatusNotFound, "NoRecipients", "No registered users found"},
	{domain.ErrDelivery, http.StatusInternalServerError, "DeliveryError", "Server error"},
	{domain.ErrStore, http.StatusInternalServerError, "StoreError", "Server error"},
}

func mapError(err error) errorMapping {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m
		}
	}
	return errorMapping{status: http.StatusInternalServerError, code: "Unexpected", message: "Server error"}
}

// httpError renders err as a {message, code} body. Server-side failures are
// logged with the request id and never echoed to the client.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	m := mapError(err)
	if m.status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"err", err,
		)
	}
	writeError(w, m.status, m.code, m.message)
}
