package alerting

import (
	"sync"
	"time"

	"github.com/good-yellow-bee/skywatch/internal/models"
)

// SystemSubject is the cooldown subject for alerts not tied to a
// specific aircraft.
const SystemSubject = "system"

// CooldownKey identifies the dedup scope of an alert: one alert kind
// for one subject aircraft (or the system sentinel).
type CooldownKey struct {
	Kind    models.AlertKind
	Subject string
}

// NewCooldownKey builds the key for a kind and optional subject.
func NewCooldownKey(kind models.AlertKind, subject string) CooldownKey {
	if subject == "" {
		subject = SystemSubject
	}
	return CooldownKey{Kind: kind, Subject: subject}
}

// CooldownManager tracks when each cooldown key last produced an alert,
// suppressing repeats inside the window to prevent alert storms.
type CooldownManager struct {
	mu     sync.Mutex
	window time.Duration
	last   map[CooldownKey]time.Time
}

// NewCooldownManager creates a cooldown manager with the given window.
func NewCooldownManager(window time.Duration) *CooldownManager {
	return &CooldownManager{
		window: window,
		last:   make(map[CooldownKey]time.Time),
	}
}

// Allow reports whether an alert for the key may be created at the
// given time, and on success stamps the key. Check and stamp are a
// single operation so two concurrent creates cannot both pass.
func (cm *CooldownManager) Allow(key CooldownKey, now time.Time) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if last, ok := cm.last[key]; ok && now.Sub(last) < cm.window {
		return false
	}
	cm.last[key] = now
	return true
}

// Remaining returns how long until the key may alert again.
func (cm *CooldownManager) Remaining(key CooldownKey, now time.Time) time.Duration {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	last, ok := cm.last[key]
	if !ok {
		return 0
	}
	remaining := cm.window - now.Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Prune removes entries whose cooldown expired before the given time,
// keeping the map bounded by the live aircraft population.
func (cm *CooldownManager) Prune(now time.Time) int {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	removed := 0
	for key, last := range cm.last {
		if now.Sub(last) >= cm.window {
			delete(cm.last, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (cm *CooldownManager) Len() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return len(cm.last)
}
