package watcher

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

type subscriber struct {
	name string
	fn   func()
}

// Notifier turns event batches into invalidation calls. Each batch calls
// every subscriber once, in subscription order, before the next batch is
// read.
type Notifier struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs []subscriber

	batches atomic.Uint64
	events  atomic.Uint64
}

// NewNotifier creates a notifier with no subscribers.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{logger: logger}
}

// Subscribe registers fn to be called once per batch.
func (n *Notifier) Subscribe(name string, fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, subscriber{name: name, fn: fn})
}

// Run consumes batches until events is closed or ctx is cancelled.
func (n *Notifier) Run(ctx context.Context, events <-chan []FileEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-events:
			if !ok {
				return
			}
			n.Notify(batch)
		}
	}
}

// Notify delivers one batch to the subscribers. Empty batches are ignored.
func (n *Notifier) Notify(batch []FileEvent) {
	if len(batch) == 0 {
		return
	}
	n.batches.Add(1)
	n.events.Add(uint64(len(batch)))

	for _, e := range batch {
		n.logger.Debug("content changed",
			slog.String("path", e.Path),
			slog.String("op", e.Operation.String()))
	}

	n.mu.RLock()
	subs := make([]subscriber, len(n.subs))
	copy(subs, n.subs)
	n.mu.RUnlock()

	for _, s := range subs {
		s.fn()
	}
	n.logger.Info("content changed, caches invalidated",
		slog.Int("events", len(batch)),
		slog.Int("subscribers", len(subs)))
}

// Batches returns the number of batches delivered so far.
func (n *Notifier) Batches() uint64 {
	return n.batches.Load()
}

// Events returns the number of events delivered so far.
func (n *Notifier) Events() uint64 {
	return n.events.Load()
}
