package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger is the part of the database the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the service can reach its database.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// HandleHealthz responds with 200 and {"status":"ok"} when the database
// answers a ping, and 503 otherwise.
// GET /healthz
func (h *HealthHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		requestLog(r).WithError(err).Warn("health check failed")
		writeJSON(r, w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unavailable",
			"database": "unreachable",
		})
		return
	}
	writeJSON(r, w, http.StatusOK, map[string]string{"status": "ok"})
}
