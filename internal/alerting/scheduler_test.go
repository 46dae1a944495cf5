package alerting

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/good-yellow-bee/skywatch/internal/models"
	"github.com/good-yellow-bee/skywatch/internal/monitor"
)

type fakeProvider struct {
	mu       sync.Mutex
	aircraft []models.AircraftState
	fetched  time.Time
	ok       bool
}

func (f *fakeProvider) Snapshot() []models.AircraftState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.AircraftState, len(f.aircraft))
	copy(out, f.aircraft)
	return out
}

func (f *fakeProvider) LastFetch() (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetched, f.ok
}

func (f *fakeProvider) set(aircraft []models.AircraftState, fetched time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aircraft = aircraft
	f.fetched = fetched
	f.ok = !fetched.IsZero()
}

func closePair(now time.Time) []models.AircraftState {
	// Roughly 5 NM apart at the same altitude, parallel tracks.
	return []models.AircraftState{
		{Hex: "abc123", Callsign: "SWA1234", Lat: 43.0, Lon: -79.0, Altitude: 30000, GroundSpeed: 450, Track: 90, Squawk: "1200", SeenAt: now},
		{Hex: "def456", Callsign: "DAL987", Lat: 43.08325, Lon: -79.0, Altitude: 30200, GroundSpeed: 450, Track: 90, Squawk: "1200", SeenAt: now},
	}
}

func newTestScheduler(store *Store, provider SnapshotProvider, opts SchedulerOptions) *Scheduler {
	return NewScheduler(store, provider, monitor.NewProvider(monitor.DefaultThresholds()), opts)
}

func TestScanTickCreatesProximityAlert(t *testing.T) {
	now := time.Now().UTC()
	provider := &fakeProvider{}
	provider.set(closePair(now), now)
	store := NewStore(StoreOptions{})
	sched := newTestScheduler(store, provider, SchedulerOptions{})

	sched.RunScanTick()

	active := store.Active()
	if len(active) != 1 {
		t.Fatalf("open alerts = %d, want 1", len(active))
	}
	if active[0].Kind != models.KindProximity {
		t.Fatalf("kind = %s, want proximity", active[0].Kind)
	}
}

func TestScanTickCooldownAcrossTicks(t *testing.T) {
	now := time.Now().UTC()
	provider := &fakeProvider{}
	provider.set(closePair(now), now)
	store := NewStore(StoreOptions{CooldownWindow: time.Minute})
	sched := newTestScheduler(store, provider, SchedulerOptions{})

	sched.RunScanTick()
	sched.RunScanTick()
	sched.RunScanTick()

	if st := store.Stats(); st.Created != 1 || st.Suppressed != 2 {
		t.Fatalf("created=%d suppressed=%d, want 1/2", st.Created, st.Suppressed)
	}
}

func TestScanTickEmptySnapshotSkipped(t *testing.T) {
	provider := &fakeProvider{}
	store := NewStore(StoreOptions{})
	sched := newTestScheduler(store, provider, SchedulerOptions{})

	sched.RunScanTick()

	if st := store.Stats(); st.Created != 0 {
		t.Fatalf("created = %d, want 0 on empty snapshot", st.Created)
	}
}

func TestScanTickEmergency(t *testing.T) {
	now := time.Now().UTC()
	provider := &fakeProvider{}
	provider.set([]models.AircraftState{
		{Hex: "abc123", Callsign: "SWA1234", Lat: 43.0, Lon: -79.0, Altitude: 30000, GroundSpeed: 450, Track: 90, Squawk: "7700", SeenAt: now},
	}, now)
	store := NewStore(StoreOptions{})
	sched := newTestScheduler(store, provider, SchedulerOptions{})

	sched.RunScanTick()

	active := store.Active()
	if len(active) != 1 {
		t.Fatalf("open alerts = %d, want 1", len(active))
	}
	if active[0].Kind != models.KindEmergency || active[0].Severity != models.SeverityCritical {
		t.Fatalf("got %s/%s, want emergency/critical", active[0].Kind, active[0].Severity)
	}
}

func TestDataLossAlert(t *testing.T) {
	provider := &fakeProvider{}
	provider.set(nil, time.Now().Add(-10*time.Minute))
	store := NewStore(StoreOptions{})
	sched := newTestScheduler(store, provider, SchedulerOptions{DataLossAfter: 2 * time.Minute})

	sched.RunScanTick()
	sched.RunScanTick() // second tick suppressed by the system cooldown

	active := store.Active()
	if len(active) != 1 {
		t.Fatalf("open alerts = %d, want 1", len(active))
	}
	if active[0].Kind != models.KindDataLoss {
		t.Fatalf("kind = %s, want data_loss", active[0].Kind)
	}
}

func TestDataLossStartupGrace(t *testing.T) {
	provider := &fakeProvider{} // never fetched
	store := NewStore(StoreOptions{})
	sched := newTestScheduler(store, provider, SchedulerOptions{DataLossAfter: 2 * time.Minute})

	sched.RunScanTick()

	if st := store.Stats(); st.Created != 0 {
		t.Fatalf("created = %d, want 0 before first fetch", st.Created)
	}
}

func TestCleanupTickResolvesStale(t *testing.T) {
	now := time.Now().UTC()
	store := NewStore(StoreOptions{})
	store.CreateAt(proximityCandidate("abc123"), now.Add(-3*time.Hour))
	store.CreateAt(proximityCandidate("def456"), now.Add(-time.Minute))

	provider := &fakeProvider{}
	sched := newTestScheduler(store, provider, SchedulerOptions{AutoResolveAfter: 2 * time.Hour})

	sched.RunCleanupTick()

	if got := len(store.Active()); got != 1 {
		t.Fatalf("open alerts = %d, want 1 after cleanup", got)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	now := time.Now().UTC()
	provider := &fakeProvider{}
	provider.set(closePair(now), now)
	store := NewStore(StoreOptions{})
	sched := newTestScheduler(store, provider, SchedulerOptions{
		ScanInterval:    10 * time.Millisecond,
		CleanupInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)

	deadline := time.After(2 * time.Second)
	for store.Stats().Created == 0 {
		select {
		case <-deadline:
			t.Fatal("scheduler produced no alerts")
		case <-time.After(5 * time.Millisecond):
		}
	}

	sched.Stop()
	sched.Stop() // idempotent
}
