package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// PollingWatcher watches for content changes by periodically listing the
// directory. Used as a fallback when fsnotify is not available or fails.
type PollingWatcher struct {
	interval  time.Duration
	extension string
	fileState map[string]fileSnapshot
	events    chan FileEvent
	errors    chan error
	stopCh    chan struct{}
	mu        sync.RWMutex
	stopped   bool
	rootPath  string
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

// NewPollingWatcher creates a polling watcher for files with extension ext.
func NewPollingWatcher(interval time.Duration, ext string) *PollingWatcher {
	return &PollingWatcher{
		interval:  interval,
		extension: ext,
		fileState: make(map[string]fileSnapshot),
		events:    make(chan FileEvent, 100),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}
}

// Start begins watching the given directory by polling.
func (p *PollingWatcher) Start(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}

	// Baseline
	state, err := p.list(absPath)
	if err != nil {
		return fmt.Errorf("perform initial scan: %w", err)
	}
	p.mu.Lock()
	p.rootPath = absPath
	p.fileState = state
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			if err := p.detectChanges(); err != nil {
				p.mu.RLock()
				if !p.stopped {
					select {
					case p.errors <- err:
					default:
					}
				}
				p.mu.RUnlock()
			}
		}
	}
}

// Stop stops the polling watcher.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}

	p.stopped = true
	close(p.stopCh)
	close(p.events)
	close(p.errors)
	return nil
}

// Events returns the channel of file events.
func (p *PollingWatcher) Events() <-chan FileEvent {
	return p.events
}

// Errors returns the channel of errors.
func (p *PollingWatcher) Errors() <-chan error {
	return p.errors
}

// list records the state of every content file directly inside root.
func (p *PollingWatcher) list(root string) (map[string]fileSnapshot, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	state := make(map[string]fileSnapshot, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsContentFile(e.Name(), p.extension) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed between ReadDir and Info
		}
		state[e.Name()] = fileSnapshot{modTime: info.ModTime(), size: info.Size()}
	}
	return state, nil
}

// detectChanges compares the current listing with the previous one and
// emits events for the differences.
func (p *PollingWatcher) detectChanges() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, err := p.list(p.rootPath)
	if err != nil {
		return fmt.Errorf("list directory for changes: %w", err)
	}

	now := time.Now()
	for name, snap := range current {
		prev, exists := p.fileState[name]
		switch {
		case !exists:
			p.emitEvent(FileEvent{Path: name, Operation: OpAdded, Timestamp: now})
		case !prev.modTime.Equal(snap.modTime) || prev.size != snap.size:
			p.emitEvent(FileEvent{Path: name, Operation: OpChanged, Timestamp: now})
		}
	}
	for name := range p.fileState {
		if _, exists := current[name]; !exists {
			p.emitEvent(FileEvent{Path: name, Operation: OpRemoved, Timestamp: now})
		}
	}

	p.fileState = current
	return nil
}

// emitEvent sends an event to the events channel.
// Must be called with lock held.
func (p *PollingWatcher) emitEvent(event FileEvent) {
	if p.stopped {
		return
	}

	select {
	case p.events <- event:
	default:
		slog.Warn("polling watcher buffer full, dropping event",
			slog.String("path", event.Path),
			slog.String("op", event.Operation.String()),
		)
	}
}
