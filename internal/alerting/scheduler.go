package alerting

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/good-yellow-bee/skywatch/internal/metrics"
	"github.com/good-yellow-bee/skywatch/internal/models"
	"github.com/good-yellow-bee/skywatch/internal/monitor"
)

// SnapshotProvider supplies the current set of tracked aircraft. The
// returned slice is a point-in-time copy owned by the caller.
type SnapshotProvider interface {
	Snapshot() []models.AircraftState
	// LastFetch reports when the provider last received fresh data. The
	// bool is false until the first successful fetch.
	LastFetch() (time.Time, bool)
}

// SchedulerOptions configures the periodic scan cadence.
type SchedulerOptions struct {
	// ScanInterval is the proximity/collision and emergency scan period.
	ScanInterval time.Duration
	// CleanupInterval is the auto-resolve sweep period.
	CleanupInterval time.Duration
	// AutoResolveAfter is the age cutoff for the auto-resolve sweep.
	AutoResolveAfter time.Duration
	// DataLossAfter raises a system-wide data-loss alert when the feed
	// has produced no fresh data for this long. Zero disables the check.
	DataLossAfter time.Duration
}

// DefaultSchedulerOptions returns the default scan cadence.
func DefaultSchedulerOptions() SchedulerOptions {
	return SchedulerOptions{
		ScanInterval:     5 * time.Second,
		CleanupInterval:  time.Minute,
		AutoResolveAfter: 2 * time.Hour,
		DataLossAfter:    2 * time.Minute,
	}
}

func (o *SchedulerOptions) setDefaults() {
	def := DefaultSchedulerOptions()
	if o.ScanInterval <= 0 {
		o.ScanInterval = def.ScanInterval
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = def.CleanupInterval
	}
	if o.AutoResolveAfter <= 0 {
		o.AutoResolveAfter = def.AutoResolveAfter
	}
}

// Scheduler drives the periodic proximity, emergency and cleanup work
// against one shared alert store. Scans are wall-clock periodic; a
// proximity tick that would overlap a still-running scan is skipped
// rather than queued.
type Scheduler struct {
	store      *Store
	provider   SnapshotProvider
	thresholds *monitor.Provider
	opts       SchedulerOptions

	scanning atomic.Bool // proximity scan in flight

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler bound to a store, a snapshot
// provider and a threshold provider.
func NewScheduler(store *Store, provider SnapshotProvider, thresholds *monitor.Provider, opts SchedulerOptions) *Scheduler {
	opts.setDefaults()
	return &Scheduler{
		store:      store,
		provider:   provider,
		thresholds: thresholds,
		opts:       opts,
		stopCh:     make(chan struct{}),
	}
}

// Start launches the periodic loops. They stop when ctx is canceled or
// Stop is called; an in-flight tick always completes.
func (s *Scheduler) Start(ctx context.Context) {
	log.Printf("scheduler starting: scan every %s, cleanup every %s, auto-resolve after %s",
		s.opts.ScanInterval, s.opts.CleanupInterval, s.opts.AutoResolveAfter)

	s.wg.Add(2)
	go s.scanLoop(ctx)
	go s.cleanupLoop(ctx)
}

// Stop stops future ticks and waits for in-flight work to complete.
// Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	log.Printf("scheduler stopped")
}

func (s *Scheduler) scanLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.RunScanTick()
		}
	}
}

func (s *Scheduler) cleanupLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.RunCleanupTick()
		}
	}
}

// RunScanTick executes one proximity + emergency scan. Exported so
// tests and the CLI can drive ticks without the wall clock. The tick
// is skipped when a previous scan is still in flight or the snapshot
// is unavailable; neither condition is an error.
func (s *Scheduler) RunScanTick() {
	if !s.scanning.CompareAndSwap(false, true) {
		metrics.ScansTotal.WithLabelValues("proximity", "skipped_overlap").Inc()
		log.Printf("proximity scan still running, skipping tick")
		return
	}
	defer s.scanning.Store(false)

	s.checkDataLoss()

	snapshot := s.provider.Snapshot()
	if len(snapshot) == 0 {
		metrics.ScansTotal.WithLabelValues("proximity", "skipped_empty").Inc()
		return
	}

	start := time.Now()
	candidates := monitor.ScanProximity(snapshot, s.thresholds.Current())
	candidates = append(candidates, monitor.ScanEmergency(snapshot)...)
	metrics.ScanDuration.Observe(time.Since(start).Seconds())
	metrics.ScansTotal.WithLabelValues("proximity", "ok").Inc()

	// Candidates go to the store one at a time; a cooldown rejection
	// never aborts the rest of the tick.
	for _, c := range candidates {
		metrics.CandidatesTotal.WithLabelValues(string(c.Kind)).Inc()
		s.store.Create(c)
	}
}

// RunCleanupTick executes one auto-resolve sweep and cooldown prune.
func (s *Scheduler) RunCleanupTick() {
	s.store.ResolveStale(s.opts.AutoResolveAfter)
	s.store.PruneCooldowns()
	metrics.ScansTotal.WithLabelValues("cleanup", "ok").Inc()
}

// checkDataLoss raises a single system-wide data-loss alert when the
// feed has been silent longer than the configured outage window. The
// cooldown key uses the system sentinel, so at most one alert per
// cooldown window regardless of how many ticks observe the outage.
func (s *Scheduler) checkDataLoss() {
	if s.opts.DataLossAfter <= 0 {
		return
	}
	last, ok := s.provider.LastFetch()
	if !ok {
		return // never fetched yet, startup grace
	}
	age := time.Since(last)
	if age <= s.opts.DataLossAfter {
		return
	}

	s.store.Create(monitor.Candidate{
		Kind:     models.KindDataLoss,
		Severity: models.SeverityHigh,
		Title:    "Aircraft Data Loss",
		Message:  "no fresh aircraft data received for " + age.Truncate(time.Second).String(),
	})
}
