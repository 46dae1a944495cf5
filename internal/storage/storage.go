// Package storage provides durable alert persistence. Persistence is
// best-effort: the in-memory store is authoritative, and storage
// failures never block or roll back alert lifecycle transitions.
package storage

import (
	"context"
	"time"

	"github.com/good-yellow-bee/skywatch/internal/models"
)

// AlertRecord is one persisted alert row.
type AlertRecord struct {
	Alert models.Alert
	// States holds the recorded lifecycle transitions, oldest first.
	States []TransitionRecord
}

// TransitionRecord is one persisted lifecycle transition.
type TransitionRecord struct {
	AlertID string
	State   string
	At      time.Time
}

// AlertRepository is the persisted-alert access interface.
type AlertRepository interface {
	Insert(ctx context.Context, alert *models.Alert) error
	RecordTransition(ctx context.Context, alertID, state string, at time.Time) error
	ListRecent(ctx context.Context, limit int) ([]*AlertRecord, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// Storage is the durable storage interface.
type Storage interface {
	Open() error
	Close() error
	Migrate() error
	Alerts() AlertRepository
}
