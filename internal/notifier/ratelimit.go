package notifier

import (
	"sync"
	"time"
)

// RateLimitConfig holds rate limiter configuration.
type RateLimitConfig struct {
	MaxPerWindow int           // maximum notifications per window (default: 10)
	Window       time.Duration // sliding window (default: 1 minute)
	Disabled     bool          // disables limiting entirely
}

// RateLimiter is a sliding-window limiter shared by all notification
// channels. It caps total outbound volume so an alert storm cannot
// flood the channels the way it would flood a pager.
type RateLimiter struct {
	mu           sync.Mutex
	maxPerWindow int
	window       time.Duration
	timestamps   []time.Time
	dropped      int64
	disabled     bool
}

// NewRateLimiter creates a rate limiter.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.MaxPerWindow <= 0 {
		config.MaxPerWindow = 10
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}

	return &RateLimiter{
		maxPerWindow: config.MaxPerWindow,
		window:       config.Window,
		timestamps:   make([]time.Time, 0, config.MaxPerWindow),
		disabled:     config.Disabled,
	}
}

// Allow reports whether a notification may be sent now, consuming one
// slot on success.
func (r *RateLimiter) Allow() bool {
	if r.disabled {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-r.window)
	idx := 0
	for idx < len(r.timestamps) && r.timestamps[idx].Before(cutoff) {
		idx++
	}
	if idx > 0 {
		copy(r.timestamps, r.timestamps[idx:])
		r.timestamps = r.timestamps[:len(r.timestamps)-idx]
	}

	if len(r.timestamps) >= r.maxPerWindow {
		r.dropped++
		return false
	}

	r.timestamps = append(r.timestamps, time.Now())
	return true
}

// Dropped returns the number of notifications dropped by the limiter.
func (r *RateLimiter) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// RateLimitStats contains rate limiter statistics.
type RateLimitStats struct {
	Dropped      int64         `json:"dropped"`
	CurrentCount int           `json:"current_count"`
	MaxPerWindow int           `json:"max_per_window"`
	Window       time.Duration `json:"window"`
	Enabled      bool          `json:"enabled"`
}

// Stats returns rate limiter statistics.
func (r *RateLimiter) Stats() RateLimitStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return RateLimitStats{
		Dropped:      r.dropped,
		CurrentCount: len(r.timestamps),
		MaxPerWindow: r.maxPerWindow,
		Window:       r.window,
		Enabled:      !r.disabled,
	}
}
