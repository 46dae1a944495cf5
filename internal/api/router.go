package api

import (
	"github.com/go-chi/chi/v5"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	limiter := newIPLimiter(s.config.RateLimitPerIP, s.config.RateLimitBurst)

	// Global middleware
	r.Use(requestLogger(s.config.Verbose))
	r.Use(recoverer)
	r.Use(prometheusMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimitByIP(limiter))

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", s.handleListAlerts)
			r.Get("/history", s.handleAlertHistory)
			r.Get("/stats", s.handleAlertStats)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetAlert)
				r.Post("/acknowledge", s.handleAcknowledgeAlert)
				r.Post("/resolve", s.handleResolveAlert)
			})
		})

		r.Get("/aircraft", s.handleListAircraft)
		r.Get("/thresholds", s.handleThresholds)
		r.Get("/events", s.handleEvents)
	})

	// Health check (public, no rate limit)
	r.Get("/health", s.handleHealth)

	return r
}
