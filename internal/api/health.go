package api

import (
	"context"
	"net/http"
	"time"

	"github.com/unionlens/contract-assistant/internal/api/respond"
)

// Pinger is implemented by store drivers that can report connectivity.
type Pinger interface {
	HealthPing(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a new health handler. db may be nil when the
// storage driver does not expose a ping.
func NewHealthHandler(db Pinger) *HealthHandler { return &HealthHandler{db: db} }

// CheckHealth handles GET /v0/health.
// Always returns 200; the body reports the liveness of the process itself.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// CheckStorageHealth handles GET /v0/health/db.
func (h *HealthHandler) CheckStorageHealth(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "unknown"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.HealthPing(ctx); err != nil {
		respond.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
