package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HealthHandler handles liveness endpoints.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	if action == "ping" {
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
		return
	}
	writeError(w, http.StatusBadRequest, "InvalidInput", "unknown action")
}

// Status serves GET /auth/.
func (h *HealthHandler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusEnvelope{ActiveStatus: true, Error: false})
}
