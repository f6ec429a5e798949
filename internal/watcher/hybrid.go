package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// HybridWatcher implements Watcher using fsnotify as the primary watching
// mechanism with polling as a fallback.
type HybridWatcher struct {
	fsWatcher      *fsnotify.Watcher
	pollWatcher    *PollingWatcher
	useFsnotify    bool
	debouncer      *Debouncer
	events         chan []FileEvent
	errors         chan error
	stopCh         chan struct{}
	rootPath       string
	opts           Options
	logger         *slog.Logger
	mu             sync.RWMutex
	stopped        bool
	deferredBatches atomic.Uint64
}

var _ Watcher = (*HybridWatcher)(nil)

// NewHybridWatcher creates a new hybrid watcher with the given options.
// It uses fsnotify when available and falls back to polling otherwise.
func NewHybridWatcher(opts Options) (*HybridWatcher, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid watcher options: %w", err)
	}

	h := &HybridWatcher{
		debouncer: NewDebouncer(opts.DebounceWindow),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		opts:      opts,
		logger:    slog.Default(),
	}

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			h.fsWatcher = fsw
			h.useFsnotify = true
		} else {
			h.logger.Warn("fsnotify unavailable, falling back to polling",
				slog.String("error", err.Error()))
		}
	}
	if !h.useFsnotify {
		h.pollWatcher = NewPollingWatcher(opts.PollInterval, opts.Extension)
	}

	return h, nil
}

// Start begins watching the given directory. It blocks until Stop is called
// or ctx is cancelled.
func (h *HybridWatcher) Start(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	h.mu.Lock()
	h.rootPath = absPath
	h.mu.Unlock()

	go h.forwardDebouncedEvents(ctx)

	if h.useFsnotify {
		return h.startFsnotify(ctx)
	}
	return h.startPolling(ctx)
}

// startFsnotify starts the fsnotify-based watcher. Only the directory itself
// is watched; content items live at its top level.
func (h *HybridWatcher) startFsnotify(ctx context.Context) error {
	if err := h.fsWatcher.Add(h.rootPath); err != nil {
		return fmt.Errorf("watch %s: %w", h.rootPath, err)
	}
	h.logger.Info("watching content directory",
		slog.String("path", h.rootPath),
		slog.String("mode", "fsnotify"))

	for {
		select {
		case <-ctx.Done():
			_ = h.Stop()
			return ctx.Err()
		case <-h.stopCh:
			return nil
		case event, ok := <-h.fsWatcher.Events:
			if !ok {
				return nil
			}
			h.handleFsnotifyEvent(event)
		case err, ok := <-h.fsWatcher.Errors:
			if !ok {
				return nil
			}
			h.emitError(err)
		}
	}
}

// startPolling starts the polling-based watcher.
func (h *HybridWatcher) startPolling(ctx context.Context) error {
	go func() {
		events := h.pollWatcher.Events()
		errs := h.pollWatcher.Errors()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.stopCh:
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				h.debouncer.Add(event)
			case err, ok := <-errs:
				if !ok {
					return
				}
				h.emitError(err)
			}
		}
	}()

	h.logger.Info("watching content directory",
		slog.String("path", h.rootPath),
		slog.String("mode", "polling"),
		slog.Duration("interval", h.opts.PollInterval))
	return h.pollWatcher.Start(ctx, h.rootPath)
}

// handleFsnotifyEvent converts and filters fsnotify events.
func (h *HybridWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(h.rootPath, event.Name)
	if err != nil {
		relPath = event.Name
	}
	if !IsContentFile(filepath.ToSlash(relPath), h.opts.Extension) {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpAdded
	case event.Op&fsnotify.Write != 0:
		op = OpChanged
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// A rename reports the old name; the new name arrives as Create.
		op = OpRemoved
	default:
		// Chmod
		return
	}

	h.debouncer.Add(FileEvent{
		Path:      relPath,
		Operation: op,
		Timestamp: time.Now(),
	})
}

// forwardDebouncedEvents forwards debounced batches to the output channel.
// A batch that does not fit is held and merged with the following ones until
// the consumer catches up, so no invalidation is lost.
func (h *HybridWatcher) forwardDebouncedEvents(ctx context.Context) {
	var held []FileEvent
	var retry <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopCh:
			return
		case <-retry:
		case events, ok := <-h.debouncer.Output():
			if !ok {
				return
			}
			held = mergeBatches(held, events)
		}

		retry = nil
		if len(held) == 0 {
			continue
		}
		if h.emitEvents(held) {
			held = nil
			continue
		}
		retry = time.After(h.opts.DebounceWindow)
	}
}

// emitEvents sends a batch to the output channel. It reports false when the
// buffer is full and the caller must retry.
func (h *HybridWatcher) emitEvents(events []FileEvent) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stopped {
		return true
	}

	select {
	case h.events <- events:
		return true
	default:
		count := h.deferredBatches.Add(1)
		h.logger.Warn("event buffer full, deferring batch",
			slog.Int("batch_size", len(events)),
			slog.Uint64("total_deferred_batches", count),
		)
		return false
	}
}

// DeferredBatches returns how many times a batch had to wait for room in the
// output buffer.
func (h *HybridWatcher) DeferredBatches() uint64 {
	return h.deferredBatches.Load()
}

// emitError sends an error to the error channel.
func (h *HybridWatcher) emitError(err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stopped {
		return
	}

	select {
	case h.errors <- err:
	default:
	}
}

// Stop stops the watcher and releases resources.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil
	}

	h.stopped = true
	close(h.stopCh)

	h.debouncer.Stop()

	if h.useFsnotify && h.fsWatcher != nil {
		_ = h.fsWatcher.Close()
	}
	if h.pollWatcher != nil {
		_ = h.pollWatcher.Stop()
	}

	close(h.events)
	close(h.errors)
	return nil
}

// Events returns the channel of batched file events.
func (h *HybridWatcher) Events() <-chan []FileEvent {
	return h.events
}

// Errors returns the channel of errors.
func (h *HybridWatcher) Errors() <-chan error {
	return h.errors
}

// IsHealthy returns true if the watcher has not stopped.
func (h *HybridWatcher) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.stopped
}

// WatcherType returns the type of watcher being used ("fsnotify" or "polling").
func (h *HybridWatcher) WatcherType() string {
	if h.useFsnotify {
		return "fsnotify"
	}
	return "polling"
}

// RootPath returns the root path being watched.
func (h *HybridWatcher) RootPath() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rootPath
}
