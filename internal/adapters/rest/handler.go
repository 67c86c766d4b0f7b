// Package rest exposes the alarm scheduler over HTTP.
package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ewilliams-labs/reveille/internal/core/domain"
	"github.com/ewilliams-labs/reveille/internal/core/ports"
	"github.com/ewilliams-labs/reveille/internal/core/services"
)

// Handler manages the HTTP interface for our application.
type Handler struct {
	sched  *services.Scheduler // Dependency on the Core Service
	router *http.ServeMux      // Standard library router
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(sched *services.Scheduler) *Handler {
	h := &Handler{
		sched:  sched,
		router: http.NewServeMux(),
	}

	// Register Routes
	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
// It acts as a proxy, passing the request to our internal router.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	// Health Check
	h.router.HandleFunc("GET /health", h.HealthCheck)
	// Alarm Management
	h.router.HandleFunc("GET /alarms", h.ListAlarms)
	h.router.HandleFunc("POST /alarms", h.CreateAlarm)
	h.router.HandleFunc("GET /alarms/{id}", h.GetAlarm)
	h.router.HandleFunc("PUT /alarms/{id}", h.UpdateAlarm)
	h.router.HandleFunc("DELETE /alarms/{id}", h.DeleteAlarm)
	h.router.HandleFunc("POST /alarms/{id}/enable", h.EnableAlarm)
	h.router.HandleFunc("POST /alarms/{id}/disable", h.DisableAlarm)
	h.router.HandleFunc("POST /alarms/{id}/trigger", h.TriggerAlarm)
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "reveille is ticking"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeError maps core errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrDuplicateID):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidAlarm), errors.Is(err, domain.ErrInvalidTimezone):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ports.ErrStorage):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, ports.ErrPlaybackFailed):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
