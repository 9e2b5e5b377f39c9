package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-otp-auth/internal/domain"
)

// MessageEnvelope is the generic response wrapper. Code is set on errors only.
type MessageEnvelope struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// TokenEnvelope wraps responses that carry a session token.
type TokenEnvelope struct {
	Message string `json:"message,omitempty"`
	Token   string `json:"token"`
}

// UserEnvelope wraps the current-user response.
type UserEnvelope struct {
	User *domain.User `json:"user"`
}

// BroadcastEnvelope reports broadcast counts. Failed phones are never exposed.
type BroadcastEnvelope struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Delivered int    `json:"delivered"`
	Total     int    `json:"total"`
}

// StatusEnvelope is the liveness body served at GET /auth/.
type StatusEnvelope struct {
	ActiveStatus bool `json:"activeStatus"`
	Error        bool `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, MessageEnvelope{Message: msg, Code: code})
}

// NotFound answers unmatched routes and unsupported methods.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, MessageEnvelope{Message: "Route not found"})
}
