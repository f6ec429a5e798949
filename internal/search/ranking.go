package search

import (
	"sort"
	"strings"

	"github.com/braint-ru/catalog/internal/content"
	"github.com/braint-ru/catalog/internal/normalize"
)

// Weights are the per-field points a query token earns when it occurs in
// that field. Phrase is the one-off bonus for a multi-token query found
// verbatim in the record.
type Weights struct {
	Title    int `yaml:"title" json:"title"`
	Aliases  int `yaml:"aliases" json:"aliases"`
	Tags     int `yaml:"tags" json:"tags"`
	Category int `yaml:"category" json:"category"`
	ID       int `yaml:"id" json:"id"`
	Phrase   int `yaml:"phrase" json:"phrase"`
}

// DefaultWeights returns the standard scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Title:    3,
		Aliases:  3,
		Tags:     1,
		Category: 1,
		ID:       1,
		Phrase:   2,
	}
}

// Match is a ranked record.
type Match struct {
	Record content.Record
	Score  int
}

// Corpus holds the normalized haystacks of a record set so repeated queries
// against one index generation do not normalize the same fields again.
type Corpus struct {
	records []content.Record
	fields  []haystack
}

type haystack struct {
	title    string
	category string
	tags     string
	aliases  string
	id       string
	all      string
}

// NewCorpus prepares records for ranking. The slice is not copied.
func NewCorpus(records []content.Record) *Corpus {
	c := &Corpus{
		records: records,
		fields:  make([]haystack, len(records)),
	}
	for i, rec := range records {
		h := haystack{
			title:    normalize.Normalize(rec.Title),
			category: normalize.Normalize(rec.Category),
			tags:     normalize.Normalize(strings.Join(rec.Tags, " ")),
			aliases:  normalize.Normalize(strings.Join(rec.Aliases, " ")),
			id:       normalize.Normalize(rec.ID),
		}
		h.all = strings.Join([]string{h.title, h.category, h.tags, h.aliases, h.id}, " ")
		c.fields[i] = h
	}
	return c
}

// Len returns the number of records in the corpus.
func (c *Corpus) Len() int {
	return len(c.records)
}

// Rank scores every record against rawQuery and returns at most limit
// matches, best first. Records that score zero are dropped. Equal scores
// keep their corpus order.
func (c *Corpus) Rank(rawQuery string, limit int, w Weights) []Match {
	if limit <= 0 {
		return []Match{}
	}
	query := normalize.Normalize(rawQuery)
	if query == "" {
		return []Match{}
	}
	tokens := strings.Fields(query)

	matches := make([]Match, 0, limit)
	for i := range c.records {
		if score := c.fields[i].score(query, tokens, w); score > 0 {
			matches = append(matches, Match{Record: c.records[i], Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func (h haystack) score(query string, tokens []string, w Weights) int {
	score := 0
	for _, tok := range tokens {
		if strings.Contains(h.title, tok) {
			score += w.Title
		}
		if strings.Contains(h.aliases, tok) {
			score += w.Aliases
		}
		if strings.Contains(h.tags, tok) {
			score += w.Tags
		}
		if strings.Contains(h.category, tok) {
			score += w.Category
		}
		if strings.Contains(h.id, tok) {
			score += w.ID
		}
	}
	// A single token is already scored per field above.
	if len(tokens) > 1 && strings.Contains(h.all, query) {
		score += w.Phrase
	}
	return score
}

// Rank scores records against rawQuery with the given weights.
func Rank(records []content.Record, rawQuery string, limit int, w Weights) []Match {
	return NewCorpus(records).Rank(rawQuery, limit, w)
}
