package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHybridWatcher_NewHybridWatcher(t *testing.T) {
	// Given: default options
	opts := DefaultOptions()

	// When: creating a hybrid watcher
	w, err := NewHybridWatcher(opts)

	// Then: no error and watcher is valid
	require.NoError(t, err)
	require.NotNil(t, w)
	defer func() { _ = w.Stop() }()
	assert.True(t, w.IsHealthy())
}

func TestHybridWatcher_InvalidOptions(t *testing.T) {
	// Given: an extension without a leading dot
	opts := Options{Extension: "mdx"}

	// When: creating a hybrid watcher
	_, err := NewHybridWatcher(opts)

	// Then: the options are rejected
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid watcher options")
}

func TestHybridWatcher_ForcePolling(t *testing.T) {
	// Given: options that force polling
	opts := Options{ForcePolling: true}

	// When: creating a hybrid watcher
	w, err := NewHybridWatcher(opts)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	// Then: the polling backend is used
	assert.Equal(t, "polling", w.WatcherType())
}

// modes runs fn once against each watcher backend.
func modes(t *testing.T, fn func(t *testing.T, opts Options)) {
	t.Helper()
	base := Options{
		DebounceWindow:  20 * time.Millisecond,
		PollInterval:    50 * time.Millisecond,
		EventBufferSize: 100,
	}
	t.Run("fsnotify", func(t *testing.T) { fn(t, base) })
	polling := base
	polling.ForcePolling = true
	t.Run("polling", func(t *testing.T) { fn(t, polling) })
}

// startWatcher starts w on dir and waits for it to settle.
func startWatcher(t *testing.T, opts Options, dir string) *HybridWatcher {
	t.Helper()
	w, err := NewHybridWatcher(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	go func() {
		_ = w.Start(ctx, dir)
	}()
	time.Sleep(150 * time.Millisecond)
	return w
}

// waitForEvent drains batches until an event for path shows up.
func waitForEvent(t *testing.T, w *HybridWatcher, path string, timeout time.Duration) (FileEvent, bool) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case batch, ok := <-w.Events():
			if !ok {
				return FileEvent{}, false
			}
			for _, e := range batch {
				if e.Path == path {
					return e, true
				}
			}
		case <-deadline:
			return FileEvent{}, false
		}
	}
}

func TestHybridWatcher_DetectsFileCreation(t *testing.T) {
	modes(t, func(t *testing.T, opts Options) {
		// Given: a watcher on an empty content directory
		dir := t.TempDir()
		w := startWatcher(t, opts, dir)

		// When: an article is created
		require.NoError(t, os.WriteFile(filepath.Join(dir, "magniy.mdx"), []byte("body"), 0o644))

		// Then: an ADDED event arrives (create+write coalesce to ADDED)
		e, ok := waitForEvent(t, w, "magniy.mdx", 2*time.Second)
		require.True(t, ok, "expected event for magniy.mdx")
		assert.Equal(t, OpAdded, e.Operation)
	})
}

func TestHybridWatcher_DetectsFileModification(t *testing.T) {
	modes(t, func(t *testing.T, opts Options) {
		// Given: a watcher on a directory with one article
		dir := t.TempDir()
		file := filepath.Join(dir, "zinc.mdx")
		require.NoError(t, os.WriteFile(file, []byte("v1"), 0o644))
		w := startWatcher(t, opts, dir)

		// When: the article is rewritten
		require.NoError(t, os.WriteFile(file, []byte("version two"), 0o644))

		// Then: a CHANGED event arrives
		e, ok := waitForEvent(t, w, "zinc.mdx", 2*time.Second)
		require.True(t, ok, "expected event for zinc.mdx")
		assert.Equal(t, OpChanged, e.Operation)
	})
}

func TestHybridWatcher_DetectsFileDeletion(t *testing.T) {
	modes(t, func(t *testing.T, opts Options) {
		// Given: a watcher on a directory with one article
		dir := t.TempDir()
		file := filepath.Join(dir, "omega.mdx")
		require.NoError(t, os.WriteFile(file, []byte("body"), 0o644))
		w := startWatcher(t, opts, dir)

		// When: the article is deleted
		require.NoError(t, os.Remove(file))

		// Then: a REMOVED event arrives
		e, ok := waitForEvent(t, w, "omega.mdx", 2*time.Second)
		require.True(t, ok, "expected event for omega.mdx")
		assert.Equal(t, OpRemoved, e.Operation)
	})
}

func TestHybridWatcher_IgnoresNonContentFiles(t *testing.T) {
	modes(t, func(t *testing.T, opts Options) {
		// Given: a watcher on an empty directory
		dir := t.TempDir()
		w := startWatcher(t, opts, dir)

		// When: only non-content files are written
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.mdx"), []byte("x"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "draft.mdx~"), []byte("x"), 0o644))

		// Then: no batch is emitted
		select {
		case batch := <-w.Events():
			t.Fatalf("unexpected batch: %v", batch)
		case <-time.After(400 * time.Millisecond):
		}
	})
}

func TestHybridWatcher_RootPath(t *testing.T) {
	// Given: a started watcher
	dir := t.TempDir()
	w := startWatcher(t, Options{ForcePolling: true, PollInterval: 50 * time.Millisecond}, dir)

	// Then: the absolute root path is reported
	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, w.RootPath())
}

func TestHybridWatcher_Stop_ClosesChannels(t *testing.T) {
	// Given: a hybrid watcher
	w, err := NewHybridWatcher(DefaultOptions())
	require.NoError(t, err)

	// When: stopped
	require.NoError(t, w.Stop())

	// Then: both channels are closed and the watcher is unhealthy
	select {
	case _, ok := <-w.Events():
		assert.False(t, ok, "events channel should be closed")
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for channel close")
	}
	_, ok := <-w.Errors()
	assert.False(t, ok, "errors channel should be closed")
	assert.False(t, w.IsHealthy())

	// Stop is idempotent
	assert.NoError(t, w.Stop())
}

func TestHybridWatcher_EmitAfterStop_NoPanic(t *testing.T) {
	// Given: a stopped watcher
	w, err := NewHybridWatcher(DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, w.Stop())

	// Then: late emits are ignored
	assert.NotPanics(t, func() {
		w.emitEvents([]FileEvent{{Path: "late.mdx", Operation: OpChanged}})
		w.emitError(assert.AnError)
	})
}

func TestHybridWatcher_DeferredBatches_InitiallyZero(t *testing.T) {
	// Given: a new hybrid watcher
	w, err := NewHybridWatcher(DefaultOptions())
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	// Then: deferred batches count is zero
	assert.Equal(t, uint64(0), w.DeferredBatches())
}

func TestHybridWatcher_DeferredBatches_IncrementsOnOverflow(t *testing.T) {
	// Given: a hybrid watcher with a tiny buffer
	opts := Options{
		EventBufferSize: 1,
	}.WithDefaults()

	w, err := NewHybridWatcher(opts)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	// When: more batches are emitted than the buffer holds
	assert.True(t, w.emitEvents([]FileEvent{{Path: "a.mdx", Operation: OpAdded}}))
	assert.False(t, w.emitEvents([]FileEvent{{Path: "b.mdx", Operation: OpAdded}}))
	assert.False(t, w.emitEvents([]FileEvent{{Path: "c.mdx", Operation: OpAdded}}))

	// Then: the refused batches are counted as deferred
	assert.Equal(t, uint64(2), w.DeferredBatches())
}

func TestHybridWatcher_FullBuffer_BatchHeldUntilDrained(t *testing.T) {
	// Given: a watcher with a one-batch buffer that is already full
	opts := Options{
		EventBufferSize: 1,
		DebounceWindow:  20 * time.Millisecond,
	}.WithDefaults()
	w, err := NewHybridWatcher(opts)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.forwardDebouncedEvents(ctx)
	require.True(t, w.emitEvents([]FileEvent{{Path: "a.mdx", Operation: OpChanged}}))

	// When: two more debounced batches arrive while nobody reads
	w.debouncer.Add(FileEvent{Path: "b.mdx", Operation: OpAdded, Timestamp: time.Now()})
	time.Sleep(60 * time.Millisecond)
	w.debouncer.Add(FileEvent{Path: "b.mdx", Operation: OpRemoved, Timestamp: time.Now()})
	time.Sleep(60 * time.Millisecond)

	// Then: the held batches are merged and delivered after the first
	first := <-w.Events()
	assert.Equal(t, "a.mdx", first[0].Path)

	select {
	case next := <-w.Events():
		require.Len(t, next, 1)
		assert.Equal(t, "b.mdx", next[0].Path)
		assert.Equal(t, OpRemoved, next[0].Operation)
	case <-time.After(2 * time.Second):
		t.Fatal("held batch was never delivered")
	}
	assert.Positive(t, w.DeferredBatches())
}
