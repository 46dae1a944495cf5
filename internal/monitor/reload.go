package monitor

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Provider hands out the current classifier thresholds. The zero value
// is not usable; create one with NewProvider.
type Provider struct {
	current atomic.Pointer[Thresholds]
}

// NewProvider creates a threshold provider with the given initial value.
func NewProvider(t Thresholds) *Provider {
	p := &Provider{}
	p.current.Store(&t)
	return p
}

// Current returns the thresholds in effect.
func (p *Provider) Current() Thresholds {
	return *p.current.Load()
}

// Set replaces the thresholds in effect.
func (p *Provider) Set(t Thresholds) {
	p.current.Store(&t)
}

// Watcher reloads classifier thresholds when the backing YAML file
// changes. A file that fails to load keeps the previous thresholds.
type Watcher struct {
	path     string
	provider *Provider
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher creates a watcher for the given thresholds file.
func NewWatcher(path string, provider *Provider) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve thresholds path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	return &Watcher{
		path:     absPath,
		provider: provider,
		watcher:  fw,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. The directory is watched rather than the file
// so editor rename-and-replace saves are still observed.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch thresholds directory: %w", err)
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
	w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("thresholds watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	t, err := LoadThresholds(w.path)
	if err != nil {
		log.Printf("thresholds reload failed, keeping previous values: %v", err)
		return
	}
	w.provider.Set(t)
	log.Printf("thresholds reloaded: proximity %.1f NM / %.0f ft, collision %.0fs / %.1f NM",
		t.ProximityDistanceNM, t.ProximityAltitudeFt, t.CollisionWarningSeconds, t.CollisionDistanceNM)
}
