package watcher

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Debouncer coalesces rapid events so that one burst of edits causes one
// invalidation. Events for the same path within the window are merged:
//   - ADDED + CHANGED = ADDED (item is still new)
//   - ADDED + REMOVED = REMOVED (a reader may have indexed it in between)
//   - CHANGED + REMOVED = REMOVED (item is gone)
//   - REMOVED + ADDED = CHANGED (item was replaced)
//
// A pair never cancels out, so every burst yields at least one event. A batch
// that finds the output full stays pending and is retried with the next flush.
type Debouncer struct {
	window  time.Duration
	pending map[string]FileEvent
	mu      sync.Mutex
	output  chan []FileEvent
	timer   *time.Timer
	stopped bool
}

// NewDebouncer creates a new debouncer with the given window duration.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]FileEvent),
		output:  make(chan []FileEvent, 10),
	}
}

// Add adds an event to be debounced.
func (d *Debouncer) Add(event FileEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.merge(event)
	d.scheduleFlush()
}

// merge folds event into pending. Must be called with lock held.
func (d *Debouncer) merge(event FileEvent) {
	if existing, ok := d.pending[event.Path]; ok {
		d.pending[event.Path] = coalesce(existing, event)
		return
	}
	d.pending[event.Path] = event
}

// coalesce merges two events for the same path.
func coalesce(existing, next FileEvent) FileEvent {
	switch existing.Operation {
	case OpAdded:
		if next.Operation == OpChanged {
			existing.Timestamp = next.Timestamp
			return existing
		}
	case OpRemoved:
		if next.Operation == OpAdded {
			next.Operation = OpChanged
			return next
		}
	}
	return next
}

// mergeBatches folds next into prev with the same rules as Add and returns
// the result ordered by path.
func mergeBatches(prev, next []FileEvent) []FileEvent {
	if len(prev) == 0 {
		return next
	}
	byPath := make(map[string]FileEvent, len(prev)+len(next))
	for _, e := range prev {
		byPath[e.Path] = e
	}
	for _, e := range next {
		if existing, ok := byPath[e.Path]; ok {
			e = coalesce(existing, e)
		}
		byPath[e.Path] = e
	}
	out := make([]FileEvent, 0, len(byPath))
	for _, e := range byPath {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// scheduleFlush schedules a flush after the debounce window.
func (d *Debouncer) scheduleFlush() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// flush emits all pending events, ordered by path.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.pending) == 0 {
		return
	}

	events := make([]FileEvent, 0, len(d.pending))
	for _, e := range d.pending {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })

	select {
	case d.output <- events:
		d.pending = make(map[string]FileEvent)
	default:
		// Keep the batch pending; later events merge into it.
		slog.Warn("debouncer output full, retrying batch",
			slog.Int("batch_size", len(events)),
		)
		d.scheduleFlush()
	}
}

// Output returns the channel of debounced batches.
func (d *Debouncer) Output() <-chan []FileEvent {
	return d.output
}

// Stop stops the debouncer and closes the output channel.
// Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.output)
}
