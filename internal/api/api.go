// Package api provides the HTTP REST API server.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/good-yellow-bee/skywatch/internal/alerting"
	"github.com/good-yellow-bee/skywatch/internal/feed"
	"github.com/good-yellow-bee/skywatch/internal/monitor"
)

// Config contains HTTP API server configuration.
type Config struct {
	Address        string
	RateLimitPerIP float64 // requests per second per client IP
	RateLimitBurst int
	Verbose        bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.RateLimitPerIP <= 0 {
		c.RateLimitPerIP = 20
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 40
	}
}

// Server is the HTTP API server.
type Server struct {
	config     *Config
	store      *alerting.Store
	tracker    *feed.Tracker
	thresholds *monitor.Provider
	server     *http.Server
}

// New creates a new API server.
func New(cfg *Config, store *alerting.Store, tracker *feed.Tracker, thresholds *monitor.Provider) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("alert store is required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("aircraft tracker is required")
	}
	if thresholds == nil {
		return nil, fmt.Errorf("threshold provider is required")
	}

	cfg.SetDefaults()

	s := &Server{
		config:     cfg,
		store:      store,
		tracker:    tracker,
		thresholds: thresholds,
	}

	s.server = &http.Server{
		Addr:        cfg.Address,
		Handler:     s.setupRouter(),
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays 0 because /api/v1/events is a long-lived
		// SSE stream. Non-streaming handlers respond quickly from
		// in-memory state.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		log.Printf("HTTP API listening on %s", s.config.Address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutting down HTTP API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}
