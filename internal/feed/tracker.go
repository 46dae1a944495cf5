package feed

import (
	"sync"
	"time"

	"github.com/good-yellow-bee/skywatch/internal/metrics"
	"github.com/good-yellow-bee/skywatch/internal/models"
)

// Tracker holds the current aircraft table. Writers replace entries as
// fetches arrive; readers get point-in-time copies. Entries unseen for
// longer than the TTL are evicted so the table tracks the live
// population.
type Tracker struct {
	mu        sync.RWMutex
	aircraft  map[string]models.AircraftState
	lastFetch time.Time
	fetched   bool

	ttl time.Duration
}

// NewTracker creates a tracker that evicts aircraft unseen for ttl.
func NewTracker(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Tracker{
		aircraft: make(map[string]models.AircraftState),
		ttl:      ttl,
	}
}

// Update merges one fetch result into the table and evicts stale
// entries. It records the fetch time for outage detection.
func (t *Tracker) Update(states []models.AircraftState, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range states {
		t.aircraft[s.Hex] = s
	}
	for hex, s := range t.aircraft {
		if now.Sub(s.SeenAt) > t.ttl {
			delete(t.aircraft, hex)
		}
	}
	t.lastFetch = now
	t.fetched = true
	metrics.TrackedAircraft.Set(float64(len(t.aircraft)))
}

// Snapshot returns a copy of every tracked aircraft.
func (t *Tracker) Snapshot() []models.AircraftState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.AircraftState, 0, len(t.aircraft))
	for _, s := range t.aircraft {
		out = append(out, s)
	}
	return out
}

// Get returns one aircraft by its lowercase hex address.
func (t *Tracker) Get(hex string) (models.AircraftState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.aircraft[hex]
	return s, ok
}

// Len returns the number of tracked aircraft.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.aircraft)
}

// LastFetch reports when the last successful fetch completed. The bool
// is false until the first successful fetch.
func (t *Tracker) LastFetch() (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastFetch, t.fetched
}
