package models

import "time"

// AlertKind classifies the condition that raised an alert.
type AlertKind string

const (
	KindProximity AlertKind = "proximity"
	KindCollision AlertKind = "collision"
	KindEmergency AlertKind = "emergency"
	KindDataLoss  AlertKind = "data_loss"
)

// AutoResolves reports whether alerts of this kind lapse automatically
// after the auto-resolve cutoff. Collision warnings and emergencies
// require explicit human resolution.
func (k AlertKind) AutoResolves() bool {
	switch k {
	case KindProximity, KindDataLoss:
		return true
	case KindCollision, KindEmergency:
		return false
	default:
		return false
	}
}

// Severity represents alert severity level, ordered low < medium <
// high < critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities for comparison and stats bucketing.
var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Less reports whether s is strictly less severe than other.
func (s Severity) Less(other Severity) bool {
	return severityRank[s] < severityRank[other]
}

// ParseSeverity converts a string to Severity, defaulting to medium.
func ParseSeverity(s string) Severity {
	switch s {
	case "low":
		return SeverityLow
	case "medium":
		return SeverityMedium
	case "high":
		return SeverityHigh
	case "critical":
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

// Alert is a durable, stateful record of a detected safety condition.
// Alerts are owned exclusively by the alert store; accessors hand out
// copies, never shared references.
type Alert struct {
	ID           string            `json:"id"`
	Kind         AlertKind         `json:"kind"`
	Severity     Severity          `json:"severity"`
	Title        string            `json:"title"`
	Message      string            `json:"message"`
	AircraftHex  string            `json:"aircraft_hex,omitempty"`
	Position     *Position         `json:"position,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	Acknowledged bool              `json:"acknowledged"`
	AutoResolve  bool              `json:"auto_resolve"`
	ResolvedAt   *time.Time        `json:"resolved_at,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Resolved reports whether the alert has left the open set.
func (a *Alert) Resolved() bool {
	return a.ResolvedAt != nil
}

// Clone returns a deep copy safe to hand outside the store.
func (a *Alert) Clone() *Alert {
	c := *a
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		c.ResolvedAt = &t
	}
	if a.Position != nil {
		p := *a.Position
		c.Position = &p
	}
	if a.Metadata != nil {
		c.Metadata = make(map[string]string, len(a.Metadata))
		for k, v := range a.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
