package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/good-yellow-bee/skywatch/internal/models"
)

const sampleDoc = `{
	"now": 1724580000.0,
	"aircraft": [
		{"hex": "ABC123", "flight": "SWA1234 ", "lat": 43.1, "lon": -79.2, "alt_baro": 30000, "gs": 450.5, "track": 271.3, "squawk": "1200", "seen": 0.4},
		{"hex": "def456", "flight": "", "lat": 43.2, "lon": -79.3, "alt_baro": "ground", "gs": 12.0, "track": 90.0, "squawk": "1200", "seen": 1.1},
		{"hex": "789abc", "squawk": "7700", "seen": 5.0},
		{"hex": "fed321", "lat": 43.3, "lon": -79.4, "seen": 0.2}
	]
}`

func TestFetchOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleDoc))
	}))
	defer srv.Close()

	p := NewPoller(Options{URL: srv.URL})
	if err := p.FetchOnce(context.Background()); err != nil {
		t.Fatalf("FetchOnce: %v", err)
	}

	// The positionless entry is dropped.
	if got := p.Tracker().Len(); got != 3 {
		t.Fatalf("tracked = %d, want 3", got)
	}

	a, ok := p.Tracker().Get("abc123")
	if !ok {
		t.Fatal("abc123 not tracked (hex should be lowercased)")
	}
	if a.Callsign != "SWA1234" {
		t.Fatalf("callsign = %q, want trailing space trimmed", a.Callsign)
	}
	if a.Altitude != 30000 || a.GroundSpeed != 450.5 || a.OnGround {
		t.Fatalf("unexpected state: %+v", a)
	}

	ground, _ := p.Tracker().Get("def456")
	if !ground.OnGround || ground.Altitude != 0 {
		t.Fatalf("alt_baro \"ground\" should mark OnGround: %+v", ground)
	}

	if _, ok := p.LastFetch(); !ok {
		t.Fatal("LastFetch should report success")
	}
}

func TestFetchOnceBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewPoller(Options{URL: srv.URL})
	if err := p.FetchOnce(context.Background()); err == nil {
		t.Fatal("expected error on 502")
	}
	if _, ok := p.LastFetch(); ok {
		t.Fatal("failed fetch should not count as a fetch")
	}
}

func TestFetchOnceBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	p := NewPoller(Options{URL: srv.URL})
	if err := p.FetchOnce(context.Background()); err == nil {
		t.Fatal("expected error on malformed body")
	}
}

func TestTrackerStaleEviction(t *testing.T) {
	tr := NewTracker(time.Minute)
	now := time.Now().UTC()

	tr.Update([]models.AircraftState{
		{Hex: "abc123", Lat: 43.0, Lon: -79.0, SeenAt: now},
		{Hex: "def456", Lat: 43.1, Lon: -79.1, SeenAt: now},
	}, now)
	if tr.Len() != 2 {
		t.Fatalf("tracked = %d, want 2", tr.Len())
	}

	// Next update only refreshes one aircraft; the other ages out.
	later := now.Add(2 * time.Minute)
	tr.Update([]models.AircraftState{
		{Hex: "abc123", Lat: 43.0, Lon: -79.0, SeenAt: later},
	}, later)

	if tr.Len() != 1 {
		t.Fatalf("tracked = %d, want 1 after eviction", tr.Len())
	}
	if _, ok := tr.Get("def456"); ok {
		t.Fatal("stale aircraft should be evicted")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Minute)
	now := time.Now().UTC()
	tr.Update([]models.AircraftState{{Hex: "abc123", Lat: 43.0, Lon: -79.0, SeenAt: now}}, now)

	snap := tr.Snapshot()
	snap[0].Lat = 0

	got, _ := tr.Get("abc123")
	if got.Lat != 43.0 {
		t.Fatal("mutating a snapshot must not affect the tracker")
	}
}
