// Package alerting implements the alert lifecycle engine: the
// authoritative in-memory store of open alerts, cooldown-based
// deduplication, the open -> acknowledged -> resolved state machine,
// and the scheduler that drives periodic scans against it.
package alerting

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/skywatch/internal/metrics"
	"github.com/good-yellow-bee/skywatch/internal/models"
	"github.com/good-yellow-bee/skywatch/internal/monitor"
)

// Persister receives alerts and lifecycle transitions for durable
// storage. Calls are best-effort: failures are logged, never retried,
// and never block or roll back the in-memory transition.
type Persister interface {
	PersistAlert(ctx context.Context, alert *models.Alert) error
	PersistTransition(ctx context.Context, alertID string, state string, at time.Time) error
}

// StoreOptions configures the alert store.
type StoreOptions struct {
	// CooldownWindow is the minimum interval between two alerts
	// sharing a cooldown key.
	CooldownWindow time.Duration
	// HistorySize bounds the retained alert history.
	HistorySize int
	// EventBufferSize is the per-subscriber event channel buffer.
	EventBufferSize int
	// Persister is optional; nil disables persistence.
	Persister Persister
	// PersistTimeout bounds each persistence call.
	PersistTimeout time.Duration
}

// DefaultStoreOptions returns the default store options.
func DefaultStoreOptions() StoreOptions {
	return StoreOptions{
		CooldownWindow:  30 * time.Second,
		HistorySize:     500,
		EventBufferSize: 100,
		PersistTimeout:  5 * time.Second,
	}
}

func (o *StoreOptions) setDefaults() {
	def := DefaultStoreOptions()
	if o.CooldownWindow <= 0 {
		o.CooldownWindow = def.CooldownWindow
	}
	if o.HistorySize <= 0 {
		o.HistorySize = def.HistorySize
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = def.EventBufferSize
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = def.PersistTimeout
	}
}

// storeCounters tracks store statistics with lock-free access.
type storeCounters struct {
	created      atomic.Int64
	suppressed   atomic.Int64
	acknowledged atomic.Int64
	resolved     atomic.Int64
	autoResolved atomic.Int64
}

// Store owns all mutable alert state: the open set, the bounded
// history, and the cooldown map. All mutations run under one mutex
// with short critical sections; readers get consistent copies.
type Store struct {
	mu      sync.RWMutex
	open    map[string]*models.Alert
	history []*models.Alert // oldest first; trimmed at HistorySize

	cooldown *CooldownManager
	events   *broadcaster
	counters storeCounters

	opts StoreOptions
}

// NewStore creates an alert store.
func NewStore(opts StoreOptions) *Store {
	opts.setDefaults()
	return &Store{
		open:     make(map[string]*models.Alert),
		cooldown: NewCooldownManager(opts.CooldownWindow),
		events:   newBroadcaster(opts.EventBufferSize),
		opts:     opts,
	}
}

// Create submits a candidate alert. It returns the created alert, or
// (nil, false) when the candidate was suppressed by cooldown.
// Suppression is not an error: it is the dedup policy working.
func (s *Store) Create(c monitor.Candidate) (*models.Alert, bool) {
	return s.CreateAt(c, time.Now().UTC())
}

// CreateAt is Create with an explicit clock, for tests.
func (s *Store) CreateAt(c monitor.Candidate, now time.Time) (*models.Alert, bool) {
	key := NewCooldownKey(c.Kind, c.AircraftHex)
	if !s.cooldown.Allow(key, now) {
		s.counters.suppressed.Add(1)
		metrics.AlertsSuppressed.Inc()
		return nil, false
	}

	alert := &models.Alert{
		ID:          uuid.New().String(),
		Kind:        c.Kind,
		Severity:    c.Severity,
		Title:       c.Title,
		Message:     c.Message,
		AircraftHex: c.AircraftHex,
		Position:    c.Position,
		CreatedAt:   now,
		AutoResolve: c.Kind.AutoResolves(),
		Metadata:    c.Metadata,
	}

	s.mu.Lock()
	s.open[alert.ID] = alert
	s.history = append(s.history, alert)
	if len(s.history) > s.opts.HistorySize {
		s.history = s.history[len(s.history)-s.opts.HistorySize:]
	}
	event := Event{Type: EventCreated, Alert: alert.Clone()}
	s.events.publish(event)
	s.mu.Unlock()

	s.counters.created.Add(1)
	metrics.AlertsCreated.WithLabelValues(string(alert.Kind)).Inc()
	metrics.OpenAlerts.Inc()

	s.persistAlert(event.Alert)
	log.Printf("alert created: %s [%s/%s] %s", alert.ID, alert.Kind, alert.Severity, alert.Title)

	return event.Alert, true
}

// Acknowledge marks an open alert as acknowledged. Returns false when
// the id is not in the open set. Repeating the call on an already
// acknowledged alert succeeds without effect.
func (s *Store) Acknowledge(id string) bool {
	s.mu.Lock()
	alert, ok := s.open[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	alert.Acknowledged = true
	event := Event{Type: EventAcknowledged, Alert: alert.Clone()}
	s.events.publish(event)
	s.mu.Unlock()

	s.counters.acknowledged.Add(1)
	s.persistTransition(id, "acknowledged", time.Now().UTC())
	return true
}

// Resolve closes an open alert: it leaves the open set but remains in
// history. Returns false when the id is not in the open set.
func (s *Store) Resolve(id string) bool {
	return s.resolveAt(id, time.Now().UTC(), false)
}

func (s *Store) resolveAt(id string, now time.Time, auto bool) bool {
	s.mu.Lock()
	alert, ok := s.open[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	resolved := now
	alert.ResolvedAt = &resolved
	delete(s.open, id)
	event := Event{Type: EventResolved, Alert: alert.Clone()}
	s.events.publish(event)
	s.mu.Unlock()

	s.counters.resolved.Add(1)
	if auto {
		s.counters.autoResolved.Add(1)
	}
	metrics.AlertsResolved.Inc()
	metrics.OpenAlerts.Dec()

	s.persistTransition(id, "resolved", now)
	return true
}

// ResolveStale resolves every open auto-resolvable alert older than
// maxAge and returns how many it resolved. Alerts with AutoResolve ==
// false are never touched regardless of age.
func (s *Store) ResolveStale(maxAge time.Duration) int {
	return s.ResolveStaleAt(maxAge, time.Now().UTC())
}

// ResolveStaleAt is ResolveStale with an explicit clock, for tests.
func (s *Store) ResolveStaleAt(maxAge time.Duration, now time.Time) int {
	s.mu.RLock()
	var stale []string
	for id, alert := range s.open {
		if alert.AutoResolve && now.Sub(alert.CreatedAt) > maxAge {
			stale = append(stale, id)
		}
	}
	s.mu.RUnlock()

	resolved := 0
	for _, id := range stale {
		if s.resolveAt(id, now, true) {
			resolved++
		}
	}
	if resolved > 0 {
		log.Printf("auto-resolved %d stale alerts", resolved)
	}
	return resolved
}

// Active returns a copy of every open alert, in unspecified order.
func (s *Store) Active() []*models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Alert, 0, len(s.open))
	for _, alert := range s.open {
		out = append(out, alert.Clone())
	}
	return out
}

// History returns up to limit retained alerts, newest first. A limit
// of zero or less returns the full retained history.
func (s *Store) History(limit int) []*models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.history)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]*models.Alert, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.history[i].Clone())
	}
	return out
}

// Get returns a copy of one alert from the open set or history.
func (s *Store) Get(id string) (*models.Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if alert, ok := s.open[id]; ok {
		return alert.Clone(), true
	}
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].ID == id {
			return s.history[i].Clone(), true
		}
	}
	return nil, false
}

// Stats is a point-in-time summary of the store.
type Stats struct {
	OpenCount    int                      `json:"open_count"`
	ByKind       map[models.AlertKind]int `json:"by_kind"`
	BySeverity   map[models.Severity]int  `json:"by_severity"`
	Created      int64                    `json:"created"`
	Suppressed   int64                    `json:"suppressed"`
	Acknowledged int64                    `json:"acknowledged"`
	Resolved     int64                    `json:"resolved"`
	AutoResolved int64                    `json:"auto_resolved"`
	EventsLost   int64                    `json:"events_lost"`
}

// Stats returns a snapshot of store statistics.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	st := Stats{
		OpenCount:  len(s.open),
		ByKind:     make(map[models.AlertKind]int),
		BySeverity: make(map[models.Severity]int),
	}
	for _, alert := range s.open {
		st.ByKind[alert.Kind]++
		st.BySeverity[alert.Severity]++
	}
	s.mu.RUnlock()

	st.Created = s.counters.created.Load()
	st.Suppressed = s.counters.suppressed.Load()
	st.Acknowledged = s.counters.acknowledged.Load()
	st.Resolved = s.counters.resolved.Load()
	st.AutoResolved = s.counters.autoResolved.Load()
	st.EventsLost = s.events.droppedEvents()
	return st
}

// Subscribe registers a lifecycle event subscriber. Every accepted
// create, acknowledge and resolve produces exactly one event, in the
// order the transitions occurred.
func (s *Store) Subscribe() <-chan Event {
	return s.events.subscribe()
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *Store) Unsubscribe(ch <-chan Event) {
	s.events.unsubscribe(ch)
}

// PruneCooldowns drops expired cooldown entries; called by the cleanup
// sweep to keep memory bounded by the live population.
func (s *Store) PruneCooldowns() int {
	return s.cooldown.Prune(time.Now().UTC())
}

// Close closes all subscriber channels.
func (s *Store) Close() {
	s.events.close()
}

func (s *Store) persistAlert(alert *models.Alert) {
	if s.opts.Persister == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.PersistTimeout)
		defer cancel()
		if err := s.opts.Persister.PersistAlert(ctx, alert); err != nil {
			log.Printf("persist alert %s failed: %v", alert.ID, err)
		}
	}()
}

func (s *Store) persistTransition(id, state string, at time.Time) {
	if s.opts.Persister == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.PersistTimeout)
		defer cancel()
		if err := s.opts.Persister.PersistTransition(ctx, id, state, at); err != nil {
			log.Printf("persist transition %s -> %s failed: %v", id, state, err)
		}
	}()
}
