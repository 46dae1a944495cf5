package alerting

import (
	"sync"

	"github.com/good-yellow-bee/skywatch/internal/models"
)

// EventType identifies a lifecycle transition.
type EventType string

const (
	EventCreated      EventType = "created"
	EventAcknowledged EventType = "acknowledged"
	EventResolved     EventType = "resolved"
)

// Event is one alert lifecycle transition, published to subscribers in
// the order the transitions occurred.
type Event struct {
	Type  EventType     `json:"type"`
	Alert *models.Alert `json:"alert"`
}

// broadcaster fans lifecycle events out to subscriber channels.
// Delivery is non-blocking: a subscriber that falls behind loses
// events, counted in droppedEvents, rather than stalling the store.
type broadcaster struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}
	bufferSize  int
	dropped     int64
}

func newBroadcaster(bufferSize int) *broadcaster {
	return &broadcaster{
		subscribers: make(map[chan Event]struct{}),
		bufferSize:  bufferSize,
	}
}

func (b *broadcaster) subscribe() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	b.subscribers[ch] = struct{}{}
	return ch
}

// unsubscribe removes the subscriber behind a receive-only channel
// view and closes it.
func (b *broadcaster) unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subscribers {
		if (<-chan Event)(sub) == ch {
			delete(b.subscribers, sub)
			close(sub)
			return
		}
	}
}

func (b *broadcaster) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			b.dropped++
		}
	}
}

func (b *broadcaster) droppedEvents() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = make(map[chan Event]struct{})
}
