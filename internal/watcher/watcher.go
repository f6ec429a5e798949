package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/braint-ru/catalog/internal/content"
)

// Operation represents a content change.
type Operation int

const (
	// OpAdded indicates a new content item appeared.
	OpAdded Operation = iota
	// OpChanged indicates an existing item was rewritten.
	OpChanged
	// OpRemoved indicates an item was deleted or renamed away.
	OpRemoved
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpAdded:
		return "ADDED"
	case OpChanged:
		return "CHANGED"
	case OpRemoved:
		return "REMOVED"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a change to one content item.
type FileEvent struct {
	// Path is the item name relative to the content directory.
	Path string

	// Operation is the kind of change.
	Operation Operation

	// Timestamp is when the change was detected.
	Timestamp time.Time
}

// Watcher defines the interface for content directory watching.
type Watcher interface {
	// Start begins watching the given directory and blocks until Stop is
	// called or ctx is cancelled. It returns an error if watching fails
	// to initialize.
	Start(ctx context.Context, path string) error

	// Stop stops the watcher and releases resources.
	// Safe to call multiple times.
	Stop() error

	// Events returns a channel of debounced event batches.
	// The channel is closed when the watcher stops.
	Events() <-chan []FileEvent

	// Errors returns a channel of non-fatal watcher errors.
	// The channel is closed when the watcher stops.
	Errors() <-chan error
}

// Options configures the watcher behavior.
type Options struct {
	// DebounceWindow is the time to wait before emitting coalesced events.
	// Default: 200ms
	DebounceWindow time.Duration

	// PollInterval is the interval for polling mode (fallback).
	// Default: 5s
	PollInterval time.Duration

	// EventBufferSize is the size of the event channel buffer.
	// Default: 100
	EventBufferSize int

	// Extension is the content file extension to watch.
	// Default: ".mdx"
	Extension string

	// ForcePolling skips fsnotify and polls from the start.
	ForcePolling bool
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  200 * time.Millisecond,
		PollInterval:    5 * time.Second,
		EventBufferSize: 100,
		Extension:       ".mdx",
	}
}

// Validate validates the options and returns an error if invalid.
func (o Options) Validate() error {
	if o.DebounceWindow < 0 {
		return errors.New("debounce window must not be negative")
	}
	if o.PollInterval < 0 {
		return errors.New("poll interval must not be negative")
	}
	if o.Extension != "" && !strings.HasPrefix(o.Extension, ".") {
		return errors.New("extension must start with a dot")
	}
	return nil
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow == 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval == 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	if o.Extension == "" {
		o.Extension = defaults.Extension
	}
	return o
}

// IsContentFile reports whether relPath names a content item: a file
// directly in the watched directory, carrying the extension, and not a
// hidden or editor temporary file.
func IsContentFile(relPath, ext string) bool {
	if relPath == "" || relPath == "." {
		return false
	}
	if strings.ContainsRune(relPath, '/') || strings.ContainsRune(relPath, filepath.Separator) {
		return false
	}
	return content.IsItemName(relPath, ext)
}
