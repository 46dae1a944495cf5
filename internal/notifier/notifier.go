// Package notifier delivers alert notifications to external channels.
// The dispatcher consumes the alert store's event stream; delivery is
// best-effort and never feeds back into the alert lifecycle.
package notifier

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/good-yellow-bee/skywatch/internal/alerting"
	"github.com/good-yellow-bee/skywatch/internal/metrics"
	"github.com/good-yellow-bee/skywatch/internal/models"
)

// Notifier is the interface for a notification channel.
type Notifier interface {
	// Name returns the notifier name (e.g., "slack", "webhook").
	Name() string
	// Send delivers one alert notification.
	Send(ctx context.Context, alert *models.Alert) error
	// Close releases any resources.
	Close() error
}

// ErrRateLimited is returned when a notification is dropped by the
// rate limiter.
var ErrRateLimited = fmt.Errorf("notification rate limited")

// Dispatcher fans accepted alerts out to the registered notifiers,
// filtered by minimum severity and bounded by a shared rate limit.
type Dispatcher struct {
	mu          sync.RWMutex
	notifiers   map[string]Notifier
	rateLimiter *RateLimiter
	minSeverity models.Severity
	sendTimeout time.Duration
}

// DispatcherOptions configures the dispatcher.
type DispatcherOptions struct {
	// MinSeverity drops alerts below this severity. Empty means all.
	MinSeverity models.Severity
	// RateLimit bounds deliveries across all notifiers.
	RateLimit RateLimitConfig
	// SendTimeout bounds each delivery. Defaults to 30s.
	SendTimeout time.Duration
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 30 * time.Second
	}
	return &Dispatcher{
		notifiers:   make(map[string]Notifier),
		rateLimiter: NewRateLimiter(opts.RateLimit),
		minSeverity: opts.MinSeverity,
		sendTimeout: opts.SendTimeout,
	}
}

// Register adds a notifier to the dispatcher.
func (d *Dispatcher) Register(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers[n.Name()] = n
}

// Unregister removes a notifier from the dispatcher.
func (d *Dispatcher) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.notifiers, name)
}

// Get returns a notifier by name.
func (d *Dispatcher) Get(name string) (Notifier, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.notifiers[name]
	return n, ok
}

// Run consumes lifecycle events until the channel closes or ctx is
// canceled. Only created events are delivered: acknowledgements and
// resolutions are operator actions, not news.
func (d *Dispatcher) Run(ctx context.Context, events <-chan alerting.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type != alerting.EventCreated {
				continue
			}
			if err := d.Dispatch(ctx, ev.Alert); err != nil && err != ErrRateLimited {
				log.Printf("notification dispatch failed: %v", err)
			}
		}
	}
}

// Dispatch sends one alert to every registered notifier. Returns
// ErrRateLimited when the shared rate limit drops the alert.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *models.Alert) error {
	if d.minSeverity != "" && alert.Severity.Less(d.minSeverity) {
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.notifiers) == 0 {
		return nil
	}

	if d.rateLimiter != nil && !d.rateLimiter.Allow() {
		return ErrRateLimited
	}

	var errs []error
	for name, n := range d.notifiers {
		sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
		err := n.Send(sendCtx, alert)
		cancel()
		if err != nil {
			metrics.NotificationsFailed.WithLabelValues(name).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		metrics.NotificationsSent.WithLabelValues(name).Inc()
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %v", errs)
	}
	return nil
}

// RateLimitStats returns the rate limiter statistics.
func (d *Dispatcher) RateLimitStats() RateLimitStats {
	if d.rateLimiter == nil {
		return RateLimitStats{}
	}
	return d.rateLimiter.Stats()
}

// Close closes all registered notifiers.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for name, n := range d.notifiers {
		if err := n.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	d.notifiers = make(map[string]Notifier)

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
