// Package cache memoises query results for a bounded time.
//
// Entries are keyed by the raw query text and the requested limit. They
// expire after a TTL and are evicted least-recently-used once the cache is
// full. FlushAll drops everything; a computation that started before a flush
// is never stored and never handed to callers that arrived after it.
package cache

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Cache configuration defaults.
const (
	DefaultSize = 1000
	DefaultTTL  = 10 * time.Minute
)

// Key identifies a cached result. Query is used exactly as the caller
// supplied it.
type Key struct {
	Query string
	Limit int
}

// String encodes the key unambiguously.
func (k Key) String() string {
	return strconv.Quote(k.Query) + "#" + strconv.Itoa(k.Limit)
}

// Entry is a stored result.
type Entry[V any] struct {
	Key        Key
	Value      V
	InsertedAt time.Time
}

// Stats are cumulative cache counters.
type Stats struct {
	Hits    uint64        `json:"hits"`
	Misses  uint64        `json:"misses"`
	Entries int           `json:"entries"`
	Size    int           `json:"size"`
	TTL     time.Duration `json:"ttl"`
}

// Cache is a TTL + LRU result cache safe for concurrent use.
type Cache[V any] struct {
	ttl  time.Duration
	size int
	now  func() time.Time

	entries *lru.Cache[Key, Entry[V]]
	flight  singleflight.Group

	mu    sync.Mutex // serialises flushes against stores
	epoch uint64

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	ttl  time.Duration
	size int
	now  func() time.Time
}

// WithTTL sets the entry lifetime. A TTL <= 0 disables age expiry.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithSize bounds the number of entries.
func WithSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.size = size
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an empty cache.
func New[V any](opts ...Option) *Cache[V] {
	o := options{ttl: DefaultTTL, size: DefaultSize, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[Key, Entry[V]](o.size)
	return &Cache[V]{
		ttl:     o.ttl,
		size:    o.size,
		now:     o.now,
		entries: entries,
	}
}

type computed[V any] struct {
	value V
	epoch uint64
}

// GetOrCompute returns the unexpired value stored under key, or calls fn,
// stores its result and returns it. Concurrent misses on the same key share
// one call to fn. Errors are returned to every waiting caller and are not
// cached.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key Key, fn func(context.Context) (V, error)) (V, error) {
	var zero V
	counted := false

	for {
		if e, ok := c.lookup(key); ok {
			c.hits.Add(1)
			return e.Value, nil
		}
		if !counted {
			c.misses.Add(1)
			counted = true
		}

		want := c.currentEpoch()
		ch := c.flight.DoChan(key.String(), func() (any, error) {
			start := c.currentEpoch()
			v, err := fn(context.WithoutCancel(ctx))
			if err != nil {
				return nil, err
			}
			c.store(key, v, start)
			return computed[V]{value: v, epoch: start}, nil
		})

		var res singleflight.Result
		select {
		case res = <-ch:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
		if res.Err != nil {
			return zero, res.Err
		}

		r := res.Val.(computed[V])
		if r.epoch >= want {
			return r.value, nil
		}
		// Shared a computation that predates a flush this call observed.
	}
}

func (c *Cache[V]) lookup(key Key) (Entry[V], bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		return Entry[V]{}, false
	}
	if c.ttl > 0 && c.now().Sub(e.InsertedAt) >= c.ttl {
		c.entries.Remove(key)
		return Entry[V]{}, false
	}
	return e, true
}

func (c *Cache[V]) store(key Key, v V, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return
	}
	c.entries.Add(key, Entry[V]{Key: key, Value: v, InsertedAt: c.now()})
}

func (c *Cache[V]) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// FlushAll removes every entry.
func (c *Cache[V]) FlushAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.entries.Purge()
}

// Len returns the number of stored entries, including expired ones not yet
// evicted.
func (c *Cache[V]) Len() int {
	return c.entries.Len()
}

// Stats returns the cache counters.
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.entries.Len(),
		Size:    c.size,
		TTL:     c.ttl,
	}
}
