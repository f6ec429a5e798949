package index

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braint-ru/catalog/internal/content"
	cerrors "github.com/braint-ru/catalog/internal/errors"
)

type fakeLoader struct {
	calls   atomic.Int32
	mu      sync.Mutex
	records []content.Record
	err     error

	// hook runs after the records are captured and before Load returns.
	hook func(call int32)
}

func (f *fakeLoader) Load(ctx context.Context) (content.LoadResult, error) {
	call := f.calls.Add(1)

	f.mu.Lock()
	err := f.err
	out := make([]content.Record, len(f.records))
	copy(out, f.records)
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err != nil {
		return content.LoadResult{Records: []content.Record{}}, err
	}
	return content.LoadResult{Records: out}, nil
}

func (f *fakeLoader) set(ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = f.records[:0]
	for _, id := range ids {
		f.records = append(f.records, content.Record{ID: id, Title: id, Category: "c"})
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func ids(records []content.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestStore_Get_LoadsOnceWhileFresh(t *testing.T) {
	// Given: a store over two records
	loader := &fakeLoader{}
	loader.set("a", "b")
	clock := newFakeClock()
	store := New(loader, WithTTL(time.Minute), WithClock(clock.Now))

	// When: reading twice within the TTL
	first, err := store.Get(context.Background())
	require.NoError(t, err)
	clock.Advance(30 * time.Second)
	second, err := store.Get(context.Background())
	require.NoError(t, err)

	// Then: the loader ran once
	assert.Equal(t, []string{"a", "b"}, ids(first))
	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, int32(1), loader.calls.Load())
}

func TestStore_Get_RebuildsAfterTTL(t *testing.T) {
	loader := &fakeLoader{}
	loader.set("a")
	clock := newFakeClock()
	store := New(loader, WithTTL(time.Minute), WithClock(clock.Now))

	_, err := store.Get(context.Background())
	require.NoError(t, err)

	loader.set("a", "b")
	clock.Advance(time.Minute)
	records, err := store.Get(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(records))
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestStore_Get_ZeroTTLNeverExpires(t *testing.T) {
	loader := &fakeLoader{}
	loader.set("a")
	clock := newFakeClock()
	store := New(loader, WithTTL(0), WithClock(clock.Now))

	_, err := store.Get(context.Background())
	require.NoError(t, err)
	clock.Advance(24 * time.Hour)
	_, err = store.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), loader.calls.Load())
}

func TestStore_Invalidate_ForcesRebuild(t *testing.T) {
	// Given: a loaded store with a long TTL
	loader := &fakeLoader{}
	loader.set("a")
	store := New(loader, WithTTL(time.Hour))
	_, err := store.Get(context.Background())
	require.NoError(t, err)

	// When: the content changes and the store is invalidated
	loader.set("a", "new")
	store.Invalidate()
	assert.False(t, store.Status().Fresh)
	records, err := store.Get(context.Background())

	// Then: the next read sees the new record
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "new"}, ids(records))
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestStore_Get_SingleFlight(t *testing.T) {
	// Given: a loader that blocks until released
	gate := make(chan struct{})
	loader := &fakeLoader{hook: func(int32) { <-gate }}
	loader.set("a")
	store := New(loader, WithTTL(time.Hour))

	// When: many readers hit the empty store at once
	const readers = 20
	var wg sync.WaitGroup
	results := make([][]content.Record, readers)
	errs := make([]error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = store.Get(context.Background())
		}(i)
	}
	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	// Then: exactly one load ran and everyone got its output
	assert.Equal(t, int32(1), loader.calls.Load())
	for i := 0; i < readers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, []string{"a"}, ids(results[i]))
	}
}

func TestStore_Get_IgnoresRebuildStartedBeforeInvalidate(t *testing.T) {
	// Given: a rebuild in flight that captured the old content
	gate := make(chan struct{})
	started := make(chan struct{}, 1)
	loader := &fakeLoader{hook: func(call int32) {
		if call == 1 {
			started <- struct{}{}
			<-gate
		}
	}}
	loader.set("old")
	store := New(loader, WithTTL(time.Hour))

	firstDone := make(chan []content.Record, 1)
	go func() {
		records, _ := store.Get(context.Background())
		firstDone <- records
	}()
	<-started

	// When: content changes, the store is invalidated and a new reader arrives
	loader.set("new")
	store.Invalidate()

	secondDone := make(chan []content.Record, 1)
	go func() {
		records, _ := store.Get(context.Background())
		secondDone <- records
	}()
	time.Sleep(20 * time.Millisecond)
	close(gate)

	// Then: the late reader only accepts a rebuild that began after the invalidation
	assert.Equal(t, []string{"new"}, ids(<-secondDone))
	assert.Equal(t, []string{"old"}, ids(<-firstDone))
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestStore_Get_WaiterHonoursContext(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	loader := &fakeLoader{hook: func(int32) { <-gate }}
	store := New(loader)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := store.Get(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStore_SourceUnavailable_CachesEmptySet(t *testing.T) {
	// Given: a source that cannot be enumerated
	loader := &fakeLoader{err: cerrors.SourceUnavailable("content", errors.New("no such directory"))}
	clock := newFakeClock()
	store := New(loader, WithTTL(time.Minute), WithClock(clock.Now))

	// When: reading twice within the TTL
	first, err := store.Get(context.Background())
	require.NoError(t, err)
	second, err := store.Get(context.Background())
	require.NoError(t, err)

	// Then: the empty set is served without error and cached
	assert.Empty(t, first)
	assert.Empty(t, second)
	assert.Equal(t, int32(1), loader.calls.Load())
	assert.Contains(t, store.Status().LastError, "no such directory")

	// And: the source recovering is picked up after the TTL
	loader.mu.Lock()
	loader.err = nil
	loader.mu.Unlock()
	loader.set("back")
	clock.Advance(time.Minute)
	records, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"back"}, ids(records))
	assert.Empty(t, store.Status().LastError)
}

func TestStore_Get_OtherLoaderErrorIsInternal(t *testing.T) {
	loader := &fakeLoader{err: errors.New("boom")}
	store := New(loader)

	_, err := store.Get(context.Background())

	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeInternal, cerrors.GetCode(err))
}

func TestStore_Close(t *testing.T) {
	loader := &fakeLoader{}
	loader.set("a")
	store := New(loader)
	_, err := store.Get(context.Background())
	require.NoError(t, err)

	require.NoError(t, store.Close())
	_, err = store.Get(context.Background())

	assert.True(t, IsClosed(err))
}

func TestStore_Snapshot_Lookup(t *testing.T) {
	loader := &fakeLoader{}
	loader.set("a", "b")
	store := New(loader)

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	rec, ok := snap.Lookup("b")
	assert.True(t, ok)
	assert.Equal(t, "b", rec.ID)
	_, ok = snap.Lookup("zzz")
	assert.False(t, ok)
	assert.Equal(t, uint64(1), snap.Generation)
}

func TestStore_Status(t *testing.T) {
	loader := &fakeLoader{}
	loader.set("a", "b", "c")
	clock := newFakeClock()
	store := New(loader, WithTTL(time.Minute), WithClock(clock.Now))

	assert.Equal(t, uint64(0), store.Status().Generation)

	_, err := store.Get(context.Background())
	require.NoError(t, err)
	st := store.Status()

	assert.Equal(t, uint64(1), st.Generation)
	assert.Equal(t, 3, st.Records)
	assert.True(t, st.Fresh)
	assert.Equal(t, clock.Now(), st.LoadedAt)

	clock.Advance(time.Minute)
	assert.False(t, store.Status().Fresh)
}
