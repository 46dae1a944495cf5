package alerting

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/good-yellow-bee/skywatch/internal/models"
	"github.com/good-yellow-bee/skywatch/internal/monitor"
)

func proximityCandidate(hex string) monitor.Candidate {
	return monitor.Candidate{
		Kind:        models.KindProximity,
		Severity:    models.SeverityMedium,
		Title:       "Proximity Alert: " + hex,
		Message:     "traffic nearby",
		AircraftHex: hex,
	}
}

func TestCreateAndCooldown(t *testing.T) {
	store := NewStore(StoreOptions{CooldownWindow: 30 * time.Second})
	now := time.Now().UTC()

	alert, ok := store.CreateAt(proximityCandidate("abc123"), now)
	if !ok {
		t.Fatal("first candidate should create an alert")
	}
	if alert.ID == "" {
		t.Fatal("alert should have an id")
	}
	if !alert.AutoResolve {
		t.Fatal("proximity alerts should auto-resolve")
	}

	if _, ok := store.CreateAt(proximityCandidate("abc123"), now.Add(10*time.Second)); ok {
		t.Fatal("repeat inside cooldown should be suppressed")
	}
	if _, ok := store.CreateAt(proximityCandidate("abc123"), now.Add(31*time.Second)); !ok {
		t.Fatal("repeat past cooldown should create an alert")
	}

	st := store.Stats()
	if st.Created != 2 || st.Suppressed != 1 {
		t.Fatalf("created=%d suppressed=%d, want 2/1", st.Created, st.Suppressed)
	}
}

func TestCreateDistinctAircraft(t *testing.T) {
	store := NewStore(StoreOptions{})
	now := time.Now().UTC()

	for i := 0; i < 101; i++ {
		hex := fmt.Sprintf("a%05d", i)
		if _, ok := store.CreateAt(proximityCandidate(hex), now); !ok {
			t.Fatalf("candidate for %s should not be suppressed", hex)
		}
	}
	if got := len(store.Active()); got != 101 {
		t.Fatalf("open count = %d, want 101", got)
	}
}

func TestLifecycle(t *testing.T) {
	store := NewStore(StoreOptions{})
	alert, _ := store.Create(proximityCandidate("abc123"))

	if !store.Acknowledge(alert.ID) {
		t.Fatal("acknowledge should succeed on open alert")
	}
	// Idempotent.
	if !store.Acknowledge(alert.ID) {
		t.Fatal("repeat acknowledge should succeed")
	}

	got, ok := store.Get(alert.ID)
	if !ok || !got.Acknowledged {
		t.Fatal("alert should be acknowledged")
	}

	if !store.Resolve(alert.ID) {
		t.Fatal("resolve should succeed on open alert")
	}
	if store.Resolve(alert.ID) {
		t.Fatal("resolve on a resolved alert should fail")
	}
	if store.Acknowledge(alert.ID) {
		t.Fatal("acknowledge on a resolved alert should fail")
	}

	if got := len(store.Active()); got != 0 {
		t.Fatalf("open count after resolve = %d, want 0", got)
	}
	// Resolved alerts stay in history.
	got, ok = store.Get(alert.ID)
	if !ok || got.ResolvedAt == nil {
		t.Fatal("resolved alert should stay retrievable with ResolvedAt set")
	}
}

func TestLifecycleUnknownID(t *testing.T) {
	store := NewStore(StoreOptions{})
	if store.Acknowledge("missing") {
		t.Fatal("acknowledge of unknown id should fail")
	}
	if store.Resolve("missing") {
		t.Fatal("resolve of unknown id should fail")
	}
	if _, ok := store.Get("missing"); ok {
		t.Fatal("get of unknown id should fail")
	}
}

func TestResolveStale(t *testing.T) {
	store := NewStore(StoreOptions{})
	now := time.Now().UTC()

	old, _ := store.CreateAt(proximityCandidate("abc123"), now.Add(-3*time.Hour))
	fresh, _ := store.CreateAt(proximityCandidate("def456"), now.Add(-time.Minute))
	pinned, _ := store.CreateAt(monitor.Candidate{
		Kind:        models.KindEmergency,
		Severity:    models.SeverityCritical,
		Title:       "General Emergency",
		AircraftHex: "789abc",
	}, now.Add(-3*time.Hour))

	resolved := store.ResolveStaleAt(2*time.Hour, now)
	if resolved != 1 {
		t.Fatalf("resolved = %d, want 1", resolved)
	}

	if got, _ := store.Get(old.ID); got.ResolvedAt == nil {
		t.Fatal("stale proximity alert should be auto-resolved")
	}
	if got, _ := store.Get(fresh.ID); got.ResolvedAt != nil {
		t.Fatal("fresh alert should stay open")
	}
	// Emergencies never auto-resolve regardless of age.
	if got, _ := store.Get(pinned.ID); got.ResolvedAt != nil {
		t.Fatal("emergency alert should stay open")
	}

	if st := store.Stats(); st.AutoResolved != 1 {
		t.Fatalf("auto-resolved counter = %d, want 1", st.AutoResolved)
	}
}

func TestHistoryNewestFirstAndBounded(t *testing.T) {
	store := NewStore(StoreOptions{HistorySize: 5})
	now := time.Now().UTC()

	for i := 0; i < 8; i++ {
		hex := fmt.Sprintf("a%05d", i)
		store.CreateAt(proximityCandidate(hex), now.Add(time.Duration(i)*time.Second))
	}

	history := store.History(0)
	if len(history) != 5 {
		t.Fatalf("history length = %d, want 5", len(history))
	}
	if history[0].AircraftHex != "a00007" {
		t.Fatalf("newest first: got %s, want a00007", history[0].AircraftHex)
	}
	if history[4].AircraftHex != "a00003" {
		t.Fatalf("oldest retained: got %s, want a00003", history[4].AircraftHex)
	}

	limited := store.History(2)
	if len(limited) != 2 || limited[0].AircraftHex != "a00007" {
		t.Fatalf("limited history wrong: %+v", limited)
	}
}

func TestEventOrdering(t *testing.T) {
	store := NewStore(StoreOptions{EventBufferSize: 16})
	defer store.Close()
	ch := store.Subscribe()

	alert, _ := store.Create(proximityCandidate("abc123"))
	store.Acknowledge(alert.ID)
	store.Resolve(alert.ID)

	want := []EventType{EventCreated, EventAcknowledged, EventResolved}
	for i, wantType := range want {
		select {
		case ev := <-ch:
			if ev.Type != wantType {
				t.Fatalf("event %d type = %s, want %s", i, ev.Type, wantType)
			}
			if ev.Alert.ID != alert.ID {
				t.Fatalf("event %d alert id = %s, want %s", i, ev.Alert.ID, alert.ID)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	store := NewStore(StoreOptions{EventBufferSize: 1})
	defer store.Close()
	store.Subscribe() // never drained

	now := time.Now().UTC()
	store.CreateAt(proximityCandidate("abc123"), now)
	store.CreateAt(proximityCandidate("def456"), now)
	store.CreateAt(proximityCandidate("789abc"), now)

	if st := store.Stats(); st.EventsLost != 2 {
		t.Fatalf("events lost = %d, want 2", st.EventsLost)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	store := NewStore(StoreOptions{})
	ch := store.Subscribe()
	store.Unsubscribe(ch)

	if _, open := <-ch; open {
		t.Fatal("channel should be closed after unsubscribe")
	}
	// Publishing after unsubscribe must not panic.
	store.Create(proximityCandidate("abc123"))
}

type recordingPersister struct {
	mu          sync.Mutex
	alerts      []string
	transitions []string
}

func (p *recordingPersister) PersistAlert(_ context.Context, alert *models.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, alert.ID)
	return nil
}

func (p *recordingPersister) PersistTransition(_ context.Context, id, state string, _ time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transitions = append(p.transitions, id+":"+state)
	return nil
}

func (p *recordingPersister) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.alerts), len(p.transitions)
}

func TestPersisterReceivesWrites(t *testing.T) {
	p := &recordingPersister{}
	store := NewStore(StoreOptions{Persister: p})

	alert, _ := store.Create(proximityCandidate("abc123"))
	store.Acknowledge(alert.ID)
	store.Resolve(alert.ID)

	deadline := time.After(2 * time.Second)
	for {
		alerts, transitions := p.counts()
		if alerts == 1 && transitions == 2 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("persister saw %d alerts, %d transitions; want 1/2", alerts, transitions)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestConcurrentCreate(t *testing.T) {
	store := NewStore(StoreOptions{HistorySize: 1000})
	now := time.Now().UTC()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			store.CreateAt(proximityCandidate(fmt.Sprintf("a%05d", n)), now)
		}(i)
	}
	wg.Wait()

	if got := len(store.Active()); got != 50 {
		t.Fatalf("open count = %d, want 50", got)
	}
}
