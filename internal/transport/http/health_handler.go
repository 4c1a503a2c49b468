package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"gradepulse/internal/store"
)

// Version is stamped at build time via -ldflags
var Version = "dev"

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	store     store.Store
	logger    *slog.Logger
	startedAt time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(st store.Store, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		store:     st,
		logger:    logger.With(slog.String("handler", "health")),
		startedAt: time.Now(),
	}
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	storeStatus := "up"

	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "store ping failed",
			slog.String("error", err.Error()))
		status = "degraded"
		code = http.StatusServiceUnavailable
		storeStatus = "down"
	}

	render.Status(r, code)
	render.JSON(w, r, map[string]interface{}{
		"status":         status,
		"store":          storeStatus,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// LivenessCheck handles GET /api/health/live
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "alive"})
}

// ReadinessCheck handles GET /api/health/ready
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]string{"status": "not ready", "reason": err.Error()})
		return
	}
	render.JSON(w, r, map[string]string{"status": "ready"})
}

// VersionInfo handles GET /api/version
func (h *HealthHandler) VersionInfo(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"version": Version})
}
