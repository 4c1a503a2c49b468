package http

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"gradepulse/internal/store"
)

// RouterConfig carries the dependencies of the dashboard router
type RouterConfig struct {
	Store             store.Store
	Registry          *prometheus.Registry
	AdminPasswordHash string
	Logger            *slog.Logger
}

// NewRouter builds the dashboard API router. Channel and settings
// management sit behind the admin session; health, version and metrics
// stay open for probes and scrapers.
func NewRouter(cfg RouterConfig) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	auth := NewAuth(cfg.AdminPasswordHash, logger)
	health := NewHealthHandler(cfg.Store, logger)
	channels := NewChannelsHandler(cfg.Store, logger)
	settings := NewSettingsHandler(cfg.Store, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health.HealthCheck)
		r.Get("/health/live", health.LivenessCheck)
		r.Get("/health/ready", health.ReadinessCheck)
		r.Get("/version", health.VersionInfo)

		r.Post("/login", auth.Login)
		r.Post("/logout", auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)
			r.Mount("/channels", channels.Routes())
			r.Mount("/settings", settings.Routes())
		})
	})

	if cfg.Registry != nil {
		r.Handle("/metrics", MetricsHandler(cfg.Registry))
	}

	return r
}
