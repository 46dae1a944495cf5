// Package main provides the SkyWatch server CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Feed     FeedConfig     `yaml:"feed"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Database DatabaseConfig `yaml:"database"`
	Notify   NotifyConfig   `yaml:"notify"`
	Verbose  bool           `yaml:"-"` // set via CLI flag
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	HTTPAddress    string `yaml:"http_address"`    // REST API listen address (default: :8080)
	MetricsAddress string `yaml:"metrics_address"` // Prometheus listen address (default: :9090)
}

// FeedConfig contains the aircraft feed settings.
type FeedConfig struct {
	URL      string `yaml:"url"`       // receiver aircraft.json endpoint
	Interval string `yaml:"interval"`  // poll interval (default: 2s)
	Timeout  string `yaml:"timeout"`   // per-fetch timeout (default: 5s)
	StaleTTL string `yaml:"stale_ttl"` // aircraft eviction age (default: 1m)
}

// AlertsConfig contains alert engine settings.
type AlertsConfig struct {
	ThresholdsPath   string `yaml:"thresholds_path"`    // optional thresholds YAML, hot-reloaded
	Cooldown         string `yaml:"cooldown"`           // dedup window (default: 30s)
	HistorySize      int    `yaml:"history_size"`       // retained alerts (default: 500)
	ScanInterval     string `yaml:"scan_interval"`      // proximity scan period (default: 5s)
	CleanupInterval  string `yaml:"cleanup_interval"`   // auto-resolve sweep period (default: 1m)
	AutoResolveAfter string `yaml:"auto_resolve_after"` // stale alert cutoff (default: 2h)
	DataLossAfter    string `yaml:"data_loss_after"`    // feed outage window (default: 2m)
}

// DatabaseConfig contains persistence settings.
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // SQLite file (default: data/skywatch.db)
}

// NotifyConfig contains notification settings.
type NotifyConfig struct {
	MinSeverity     string            `yaml:"min_severity"`      // low|medium|high|critical
	SlackWebhookURL string            `yaml:"slack_webhook_url"` // optional Slack channel
	WebhookURL      string            `yaml:"webhook_url"`       // optional generic webhook
	WebhookHeaders  map[string]string `yaml:"webhook_headers"`
	MaxPerMinute    int               `yaml:"max_per_minute"` // outbound cap (default: 10)
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.HTTPAddress == "" {
		c.Server.HTTPAddress = ":8080"
	}
	if c.Server.MetricsAddress == "" {
		c.Server.MetricsAddress = ":9090"
	}
	if c.Feed.URL == "" {
		c.Feed.URL = "http://localhost:8504/data/aircraft.json"
	}
	if c.Feed.Interval == "" {
		c.Feed.Interval = "2s"
	}
	if c.Feed.Timeout == "" {
		c.Feed.Timeout = "5s"
	}
	if c.Feed.StaleTTL == "" {
		c.Feed.StaleTTL = "1m"
	}
	if c.Alerts.Cooldown == "" {
		c.Alerts.Cooldown = "30s"
	}
	if c.Alerts.HistorySize == 0 {
		c.Alerts.HistorySize = 500
	}
	if c.Alerts.ScanInterval == "" {
		c.Alerts.ScanInterval = "5s"
	}
	if c.Alerts.CleanupInterval == "" {
		c.Alerts.CleanupInterval = "1m"
	}
	if c.Alerts.AutoResolveAfter == "" {
		c.Alerts.AutoResolveAfter = "2h"
	}
	if c.Alerts.DataLossAfter == "" {
		c.Alerts.DataLossAfter = "2m"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/skywatch.db"
	}
	if c.Notify.MaxPerMinute == 0 {
		c.Notify.MaxPerMinute = 10
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url is required")
	}

	durations := map[string]string{
		"feed.interval":             c.Feed.Interval,
		"feed.timeout":              c.Feed.Timeout,
		"feed.stale_ttl":            c.Feed.StaleTTL,
		"alerts.cooldown":           c.Alerts.Cooldown,
		"alerts.scan_interval":      c.Alerts.ScanInterval,
		"alerts.cleanup_interval":   c.Alerts.CleanupInterval,
		"alerts.auto_resolve_after": c.Alerts.AutoResolveAfter,
		"alerts.data_loss_after":    c.Alerts.DataLossAfter,
	}
	for field, raw := range durations {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("%s: invalid duration %q", field, raw)
		}
	}

	switch c.Notify.MinSeverity {
	case "", "low", "medium", "high", "critical":
	default:
		return fmt.Errorf("notify.min_severity: unknown severity %q", c.Notify.MinSeverity)
	}

	return nil
}

// duration parses a validated duration string.
func duration(raw string) time.Duration {
	d, _ := time.ParseDuration(raw)
	return d
}
