// Package content reads articles from a content source and turns them into
// validated records.
package content

import (
	"context"
	"strings"
	"time"
)

// DefaultExtension is the file extension of content items.
const DefaultExtension = ".mdx"

// DefaultPathPrefix is prepended to a record id to form its addressable path.
const DefaultPathPrefix = "/articles"

// IsItemName reports whether a file name denotes a content item: it carries
// ext and is not a hidden, lock or editor backup file. The loader and the
// change watcher both use it, so every loaded item is also watched.
func IsItemName(name, ext string) bool {
	if name == "" || name == ext || !strings.HasSuffix(name, ext) {
		return false
	}
	return !strings.HasPrefix(name, ".") && !strings.HasPrefix(name, "#") && !strings.HasSuffix(name, "~")
}

// Record is the validated, in-memory representation of one article.
// Records handed out by the index are shared between readers and must be
// treated as read-only.
type Record struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Category     string         `json:"category"`
	Tags         []string       `json:"tags"`
	Aliases      []string       `json:"aliases"`
	Path         string         `json:"path"`
	LastModified time.Time      `json:"last_modified"`
	Body         string         `json:"-"`
	Metadata     map[string]any `json:"-"`
}

// Source enumerates content items.
type Source interface {
	// List returns the items currently present in the source.
	List(ctx context.Context) ([]Item, error)

	// String describes the source for logs and errors.
	String() string
}

// Item is a single entry of a Source.
type Item interface {
	// Name is the item name including its extension, e.g. "magniy.mdx".
	Name() string

	// ReadRaw returns the full text of the item.
	ReadRaw(ctx context.Context) ([]byte, error)

	// LastModified returns the time of the item's most recent change.
	LastModified() (time.Time, error)
}

// Skip describes an item that was not loaded.
type Skip struct {
	Item string
	Err  error
}

// LoadResult is the outcome of one Loader run.
type LoadResult struct {
	Records []Record
	Skipped []Skip
}
