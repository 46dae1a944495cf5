// Package feed polls an ADS-B receiver for aircraft state and
// maintains the live aircraft table the scanners read from.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/good-yellow-bee/skywatch/internal/metrics"
	"github.com/good-yellow-bee/skywatch/internal/models"
)

const maxResponseBytes = 8 << 20

// Options configures the feed poller.
type Options struct {
	// URL is the receiver's aircraft.json endpoint.
	URL string
	// Interval is the poll period.
	Interval time.Duration
	// Timeout bounds each fetch.
	Timeout time.Duration
	// StaleTTL evicts aircraft unseen for this long.
	StaleTTL time.Duration
}

func (o *Options) setDefaults() {
	if o.Interval <= 0 {
		o.Interval = 2 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.StaleTTL <= 0 {
		o.StaleTTL = time.Minute
	}
}

// Poller periodically fetches the receiver feed into a Tracker. A
// failed fetch leaves the previous table in place; outage detection is
// the scheduler's job, via LastFetch.
type Poller struct {
	tracker *Tracker
	client  *http.Client
	opts    Options
}

// NewPoller creates a poller for the given receiver endpoint.
func NewPoller(opts Options) *Poller {
	opts.setDefaults()
	return &Poller{
		tracker: NewTracker(opts.StaleTTL),
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
	}
}

// Tracker returns the aircraft table the poller maintains.
func (p *Poller) Tracker() *Tracker {
	return p.tracker
}

// Snapshot returns a copy of every tracked aircraft.
func (p *Poller) Snapshot() []models.AircraftState {
	return p.tracker.Snapshot()
}

// LastFetch reports when the last successful fetch completed.
func (p *Poller) LastFetch() (time.Time, bool) {
	return p.tracker.LastFetch()
}

// Run polls until ctx is canceled. It fetches once immediately so the
// table is warm before the first scan tick.
func (p *Poller) Run(ctx context.Context) error {
	log.Printf("feed poller starting: %s every %s", p.opts.URL, p.opts.Interval)

	if err := p.FetchOnce(ctx); err != nil {
		log.Printf("feed fetch failed: %v", err)
	}

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("feed poller stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := p.FetchOnce(ctx); err != nil {
				metrics.FeedFetchErrors.Inc()
				log.Printf("feed fetch failed: %v", err)
			}
		}
	}
}

// FetchOnce performs a single fetch and merges the result into the
// tracker.
func (p *Poller) FetchOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.opts.URL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch aircraft: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("fetch aircraft: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var doc wireResponse
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("parse aircraft: %w", err)
	}

	now := time.Now().UTC()
	states := make([]models.AircraftState, 0, len(doc.Aircraft))
	for i := range doc.Aircraft {
		if s, ok := doc.Aircraft[i].toState(now); ok {
			states = append(states, s)
		}
	}
	p.tracker.Update(states, now)
	return nil
}
