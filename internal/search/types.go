// Package search ranks catalogue records against free-text queries and
// serves the read operations of the catalogue on top of the index store and
// result cache.
package search

import (
	"maps"
	"slices"
	"time"

	"github.com/braint-ru/catalog/internal/cache"
	"github.com/braint-ru/catalog/internal/content"
	"github.com/braint-ru/catalog/internal/index"
	"github.com/braint-ru/catalog/internal/telemetry"
)

// Limits applied to search requests.
const (
	DefaultLimit = 5
	MaxLimit     = 50
)

// Summary is the search-result and listing view of a record. Summaries are
// shared through the result cache; Tags must be treated as read-only.
type Summary struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Path     string   `json:"path"`
}

// Article is the full view of a record returned by a single-item fetch.
// Tags, Aliases and Metadata are copies; callers may modify them.
type Article struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Category     string         `json:"category"`
	Tags         []string       `json:"tags"`
	Aliases      []string       `json:"aliases"`
	Path         string         `json:"path"`
	Body         string         `json:"body"`
	Metadata     map[string]any `json:"metadata"`
	LastModified time.Time      `json:"last_modified"`
}

// CategoryGroup lists the summaries of one category.
type CategoryGroup struct {
	Name     string    `json:"name"`
	Articles []Summary `json:"articles"`
}

// Neighbors are the records before and after one record in title order.
// Either side is nil at the ends of the list.
type Neighbors struct {
	Prev *Summary `json:"prev"`
	Next *Summary `json:"next"`
}

// EngineConfig holds search tuning options.
type EngineConfig struct {
	DefaultLimit int
	MaxLimit     int
	Weights      Weights
}

// DefaultEngineConfig returns the standard configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultLimit: DefaultLimit,
		MaxLimit:     MaxLimit,
		Weights:      DefaultWeights(),
	}
}

// Status combines the index, cache and query statistics.
type Status struct {
	Index   index.Status                    `json:"index"`
	Cache   cache.Stats                     `json:"cache"`
	Queries *telemetry.QueryMetricsSnapshot `json:"queries,omitempty"`
}

func summaryOf(rec content.Record) Summary {
	return Summary{
		ID:       rec.ID,
		Title:    rec.Title,
		Category: rec.Category,
		Tags:     rec.Tags,
		Path:     rec.Path,
	}
}

func articleOf(rec content.Record) *Article {
	return &Article{
		ID:           rec.ID,
		Title:        rec.Title,
		Category:     rec.Category,
		Tags:         slices.Clone(rec.Tags),
		Aliases:      slices.Clone(rec.Aliases),
		Path:         rec.Path,
		Body:         rec.Body,
		Metadata:     maps.Clone(rec.Metadata),
		LastModified: rec.LastModified,
	}
}
