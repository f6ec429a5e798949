package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/braint-ru/catalog/internal/cache"
	cerrors "github.com/braint-ru/catalog/internal/errors"
	"github.com/braint-ru/catalog/internal/index"
	"github.com/braint-ru/catalog/internal/telemetry"
)

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// maxSuggestions bounds the "did you mean" list of a NotFound error.
const maxSuggestions = 3

// Engine answers catalogue queries from the index store, memoising search
// results in the result cache.
type Engine struct {
	store   *index.Store
	results *cache.Cache[[]Summary]
	config  EngineConfig
	metrics *telemetry.QueryMetrics // optional
	logger  *slog.Logger

	mu     sync.Mutex
	corpus *Corpus
	gen    uint64 // generation the corpus was built from
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithMetrics sets an optional query metrics collector.
func WithMetrics(m *telemetry.QueryMetrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine over store and results.
func NewEngine(store *index.Store, results *cache.Cache[[]Summary], config EngineConfig, opts ...EngineOption) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: index store is required", ErrNilDependency)
	}
	if results == nil {
		return nil, fmt.Errorf("%w: result cache is required", ErrNilDependency)
	}

	def := DefaultEngineConfig()
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = def.DefaultLimit
	}
	if config.MaxLimit <= 0 {
		config.MaxLimit = def.MaxLimit
	}
	if config.DefaultLimit > config.MaxLimit {
		config.DefaultLimit = config.MaxLimit
	}
	if config.Weights == (Weights{}) {
		config.Weights = def.Weights
	}

	e := &Engine{
		store:   store,
		results: results,
		config:  config,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Search returns the best matches for query. A limit <= 0 selects the
// default limit; larger limits are capped. Search never fails: any fault
// while loading or ranking yields an empty result.
func (e *Engine) Search(ctx context.Context, query string, limit int) []Summary {
	start := time.Now()
	limit = e.clampLimit(limit)

	results, err := e.results.GetOrCompute(ctx, cache.Key{Query: query, Limit: limit},
		func(ctx context.Context) ([]Summary, error) {
			return e.compute(ctx, query, limit)
		})
	if err != nil {
		e.logger.Warn("search failed, returning no results",
			slog.String("query", query),
			slog.String("error", err.Error()))
		results = []Summary{}
	}

	if e.metrics != nil {
		e.metrics.Record(telemetry.QueryEvent{
			Query:       query,
			ResultCount: len(results),
			Latency:     time.Since(start),
			Timestamp:   start,
		})
	}
	e.logger.Debug("search",
		slog.String("query", query),
		slog.Int("limit", limit),
		slog.Int("results", len(results)),
		slog.Duration("took", time.Since(start)))

	return results
}

func (e *Engine) compute(ctx context.Context, query string, limit int) ([]Summary, error) {
	snap, err := e.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	matches := e.corpusFor(snap).Rank(query, limit, e.config.Weights)
	out := make([]Summary, len(matches))
	for i, m := range matches {
		out[i] = summaryOf(m.Record)
	}
	return out, nil
}

// corpusFor returns the prepared corpus of snap, building it once per
// generation.
func (e *Engine) corpusFor(snap *index.Snapshot) *Corpus {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.corpus == nil || e.gen != snap.Generation {
		e.corpus = NewCorpus(snap.Records)
		e.gen = snap.Generation
	}
	return e.corpus
}

func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		return e.config.DefaultLimit
	}
	if limit > e.config.MaxLimit {
		return e.config.MaxLimit
	}
	return limit
}

// Get returns the article with the given id. Unknown ids yield a NotFound
// error carrying the closest known ids as a suggestion.
func (e *Engine) Get(ctx context.Context, id string) (*Article, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	rec, ok := snap.Lookup(id)
	if !ok {
		nf := cerrors.NotFound(id)
		if similar := suggest(id, snap); len(similar) > 0 {
			nf.WithDetail("suggestions", strings.Join(similar, ","))
			nf.WithSuggestion("Did you mean: " + strings.Join(similar, ", ") + "?")
		}
		return nil, nf
	}
	return articleOf(rec), nil
}

func suggest(id string, snap *index.Snapshot) []string {
	if id == "" || len(snap.Records) == 0 {
		return nil
	}
	ids := make([]string, len(snap.Records))
	for i, rec := range snap.Records {
		ids[i] = rec.ID
	}

	found := fuzzy.Find(id, ids)
	out := make([]string, 0, maxSuggestions)
	for _, m := range found {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

// List returns every record ordered by title.
func (e *Engine) List(ctx context.Context) ([]Summary, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return sortedByTitle(snap), nil
}

// Categories returns the records grouped by category. Groups and the
// records within them are ordered by name.
func (e *Engine) Categories(ctx context.Context) ([]CategoryGroup, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*CategoryGroup)
	names := make([]string, 0)
	for _, s := range sortedByTitle(snap) {
		g, ok := groups[s.Category]
		if !ok {
			g = &CategoryGroup{Name: s.Category, Articles: []Summary{}}
			groups[s.Category] = g
			names = append(names, s.Category)
		}
		g.Articles = append(g.Articles, s)
	}

	col := collate.New(language.Russian)
	sort.SliceStable(names, func(i, j int) bool {
		return col.CompareString(names[i], names[j]) < 0
	})

	out := make([]CategoryGroup, len(names))
	for i, name := range names {
		out[i] = *groups[name]
	}
	return out, nil
}

// Neighbors returns the records adjacent to id in title order.
func (e *Engine) Neighbors(ctx context.Context, id string) (Neighbors, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return Neighbors{}, err
	}
	if _, ok := snap.Lookup(id); !ok {
		return Neighbors{}, cerrors.NotFound(id)
	}

	list := sortedByTitle(snap)
	var n Neighbors
	for i := range list {
		if list[i].ID != id {
			continue
		}
		if i > 0 {
			prev := list[i-1]
			n.Prev = &prev
		}
		if i < len(list)-1 {
			next := list[i+1]
			n.Next = &next
		}
		break
	}
	return n, nil
}

// InvalidateAll marks the index stale and drops every cached result.
func (e *Engine) InvalidateAll() {
	e.store.Invalidate()
	e.results.FlushAll()
}

// Status reports index, cache and query statistics.
func (e *Engine) Status() Status {
	st := Status{
		Index: e.store.Status(),
		Cache: e.results.Stats(),
	}
	if e.metrics != nil {
		st.Queries = e.metrics.Snapshot()
	}
	return st
}

func (e *Engine) snapshot(ctx context.Context) (*index.Snapshot, error) {
	snap, err := e.store.Snapshot(ctx)
	if err != nil {
		if cerrors.GetCode(err) != "" {
			return nil, err
		}
		return nil, cerrors.InternalError("read index", err)
	}
	return snap, nil
}

// sortedByTitle orders the snapshot records by title using Russian
// collation, falling back to id for equal titles.
func sortedByTitle(snap *index.Snapshot) []Summary {
	out := make([]Summary, len(snap.Records))
	for i, rec := range snap.Records {
		out[i] = summaryOf(rec)
	}

	col := collate.New(language.Russian)
	sort.SliceStable(out, func(i, j int) bool {
		if c := col.CompareString(out[i].Title, out[j].Title); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}
