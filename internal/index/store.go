// Package index holds the current generation of validated content records
// and rebuilds it from the content loader when it goes stale.
//
// A generation is stale when it is older than the configured TTL or when
// Invalidate has been called since it was loaded. Concurrent readers of a
// stale store share a single rebuild.
package index

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/braint-ru/catalog/internal/content"
	cerrors "github.com/braint-ru/catalog/internal/errors"
)

// ErrClosed is returned by Get after Close.
var ErrClosed = cerrors.New(cerrors.ErrCodeClosed, "index store is closed", nil)

// Loader produces a full set of records. *content.Loader implements it.
type Loader interface {
	Load(ctx context.Context) (content.LoadResult, error)
}

// Snapshot is one complete generation of the index. It is immutable once
// returned and may be shared between goroutines.
type Snapshot struct {
	Records    []content.Record
	Skipped    []content.Skip
	Generation uint64
	LoadedAt   time.Time

	// SourceErr is set when the rebuild found the source unavailable and
	// cached an empty set in its place.
	SourceErr error

	epoch uint64
	byID  map[string]int
}

// Lookup returns the record with the given id.
func (s *Snapshot) Lookup(id string) (content.Record, bool) {
	i, ok := s.byID[id]
	if !ok {
		return content.Record{}, false
	}
	return s.Records[i], true
}

// Status describes the current generation.
type Status struct {
	Generation uint64        `json:"generation"`
	LoadedAt   time.Time     `json:"loaded_at"`
	Records    int           `json:"records"`
	Skipped    int           `json:"skipped"`
	LastError  string        `json:"last_error,omitempty"`
	Fresh      bool          `json:"fresh"`
	TTL        time.Duration `json:"ttl"`
}

// Store caches the loader output for a TTL.
type Store struct {
	loader Loader
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	flight singleflight.Group

	mu         sync.RWMutex
	snap       *Snapshot
	epoch      uint64 // incremented by Invalidate
	generation uint64
	closed     bool
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the maximum age of a generation. A TTL <= 0 disables age
// expiry, leaving Invalidate as the only way to force a rebuild.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// DefaultTTL is used when no TTL option is given.
const DefaultTTL = 30 * time.Second

// New creates an empty store. Nothing is loaded until the first Get.
func New(loader Loader, opts ...Option) *Store {
	s := &Store{
		loader: loader,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the records of a fresh generation, rebuilding first if needed.
func (s *Store) Get(ctx context.Context) ([]content.Record, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Records, nil
}

// Snapshot returns a fresh generation, rebuilding first if needed.
//
// The caller never accepts a generation whose rebuild started before an
// invalidation the caller has already observed.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	for {
		s.mu.RLock()
		if s.closed {
			s.mu.RUnlock()
			return nil, ErrClosed
		}
		want := s.epoch
		snap := s.snap
		fresh := s.freshLocked(snap)
		s.mu.RUnlock()

		if fresh {
			return snap, nil
		}

		ch := s.flight.DoChan("rebuild", func() (any, error) {
			return s.rebuild(context.WithoutCancel(ctx))
		})

		var res singleflight.Result
		select {
		case res = <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if res.Err != nil {
			return nil, res.Err
		}

		snap = res.Val.(*Snapshot)
		if snap.epoch >= want {
			return snap, nil
		}
		// Joined a rebuild that began before the invalidation seen above.
	}
}

func (s *Store) freshLocked(snap *Snapshot) bool {
	if snap == nil || snap.epoch != s.epoch {
		return false
	}
	if s.ttl <= 0 {
		return true
	}
	return s.now().Sub(snap.LoadedAt) < s.ttl
}

func (s *Store) rebuild(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	start := s.epoch
	s.mu.RUnlock()

	began := time.Now()
	result, err := s.loader.Load(ctx)

	snap := &Snapshot{epoch: start}
	switch {
	case err == nil:
		snap.Records = result.Records
		snap.Skipped = result.Skipped
	case cerrors.GetCode(err) == cerrors.ErrCodeSourceUnavailable:
		s.logger.Warn("content source unavailable, serving empty index",
			slog.String("error", err.Error()))
		snap.SourceErr = err
	default:
		s.logger.Error("index rebuild failed", slog.String("error", err.Error()))
		return nil, cerrors.InternalError("index rebuild failed", err)
	}
	if snap.Records == nil {
		snap.Records = []content.Record{}
	}

	snap.byID = make(map[string]int, len(snap.Records))
	for i, rec := range snap.Records {
		snap.byID[rec.ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	s.generation++
	snap.Generation = s.generation
	snap.LoadedAt = s.now()
	s.snap = snap

	s.logger.Debug("index rebuilt",
		slog.Uint64("generation", snap.Generation),
		slog.Int("records", len(snap.Records)),
		slog.Int("skipped", len(snap.Skipped)),
		slog.Duration("took", time.Since(began)))

	return snap, nil
}

// Invalidate marks the current generation stale. The next Get rebuilds.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()
}

// Status reports on the current generation without triggering a rebuild.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{TTL: s.ttl}
	if s.snap == nil {
		return st
	}
	st.Generation = s.snap.Generation
	st.LoadedAt = s.snap.LoadedAt
	st.Records = len(s.snap.Records)
	st.Skipped = len(s.snap.Skipped)
	st.Fresh = !s.closed && s.freshLocked(s.snap)
	if s.snap.SourceErr != nil {
		st.LastError = s.snap.SourceErr.Error()
	}
	return st
}

// Close releases the current generation. Subsequent Gets fail with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.snap = nil
	return nil
}

// IsClosed reports whether err is ErrClosed.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}
