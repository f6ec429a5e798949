package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	cerrors "github.com/braint-ru/catalog/internal/errors"
	"github.com/braint-ru/catalog/internal/frontmatter"
)

// Loader reads every content item from a Source and validates it.
type Loader struct {
	source     Source
	extension  string
	pathPrefix string
	logger     *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithExtension sets the content file extension (default ".mdx").
func WithExtension(ext string) LoaderOption {
	return func(l *Loader) {
		if ext != "" {
			l.extension = ext
		}
	}
}

// WithPathPrefix sets the prefix used to build record paths (default "/articles").
func WithPathPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.pathPrefix = strings.TrimRight(prefix, "/")
	}
}

// WithLogger sets the logger used for skipped items.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a loader for src.
func NewLoader(src Source, opts ...LoaderOption) *Loader {
	l := &Loader{
		source:     src,
		extension:  DefaultExtension,
		pathPrefix: DefaultPathPrefix,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Source returns the source the loader reads from.
func (l *Loader) Source() Source {
	return l.source
}

// Load reads all items with the content extension. Items that fail to read
// or validate are skipped and reported in LoadResult.Skipped. If the source
// itself cannot be enumerated, Load returns an empty result and a
// SourceUnavailable error.
func (l *Loader) Load(ctx context.Context) (LoadResult, error) {
	items, err := l.source.List(ctx)
	if err != nil {
		return LoadResult{Records: []Record{}}, cerrors.SourceUnavailable(l.source.String(), err)
	}

	result := LoadResult{Records: make([]Record, 0, len(items))}
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		name := item.Name()
		if !IsItemName(name, l.extension) {
			continue
		}

		rec, err := l.loadItem(ctx, item)
		if err == nil {
			if _, dup := seen[rec.ID]; dup {
				err = cerrors.MalformedRecord(name, "duplicate id "+rec.ID)
			}
		}
		if err != nil {
			l.logger.Warn("skipping content item",
				slog.String("item", name),
				slog.String("error", err.Error()))
			result.Skipped = append(result.Skipped, Skip{Item: name, Err: err})
			continue
		}

		seen[rec.ID] = struct{}{}
		result.Records = append(result.Records, rec)
	}

	l.logger.Info("content loaded",
		slog.String("source", l.source.String()),
		slog.Int("records", len(result.Records)),
		slog.Int("skipped", len(result.Skipped)))

	return result, nil
}

func (l *Loader) loadItem(ctx context.Context, item Item) (Record, error) {
	name := item.Name()

	raw, err := item.ReadRaw(ctx)
	if err != nil {
		return Record{}, cerrors.ItemReadError(name, err)
	}

	doc, err := frontmatter.Parse(raw)
	if err != nil {
		return Record{}, cerrors.MalformedRecord(name, err.Error())
	}

	modified, err := item.LastModified()
	if err != nil {
		return Record{}, cerrors.ItemReadError(name, err)
	}

	id := strings.TrimSuffix(name, l.extension)
	rec, err := Validate(id, doc.Meta)
	if err != nil {
		return Record{}, cerrors.MalformedRecord(name, err.Error())
	}

	rec.Path = l.pathPrefix + "/" + id
	rec.LastModified = modified
	rec.Body = doc.Body
	return rec, nil
}

// Validate builds a record from a metadata header. title and category must
// be non-empty strings and tags must be a sequence; aliases is optional.
func Validate(id string, meta map[string]any) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("empty id")
	}

	title, err := requiredString(meta, "title")
	if err != nil {
		return Record{}, err
	}
	category, err := requiredString(meta, "category")
	if err != nil {
		return Record{}, err
	}

	rawTags, ok := meta["tags"]
	if !ok {
		return Record{}, fmt.Errorf("missing tags")
	}
	tags, err := stringList("tags", rawTags)
	if err != nil {
		return Record{}, err
	}

	aliases := []string{}
	if rawAliases, ok := meta["aliases"]; ok && rawAliases != nil {
		if s, isString := rawAliases.(string); isString {
			aliases = []string{s}
		} else if aliases, err = stringList("aliases", rawAliases); err != nil {
			return Record{}, err
		}
	}

	return Record{
		ID:       id,
		Title:    title,
		Category: category,
		Tags:     tags,
		Aliases:  aliases,
		Metadata: meta,
	}, nil
}

func requiredString(meta map[string]any, key string) (string, error) {
	v, ok := meta[key]
	if !ok || v == nil {
		return "", fmt.Errorf("missing %s", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, v)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("empty %s", key)
	}
	return s, nil
}

// stringList converts a decoded sequence into strings. Scalar elements are
// stringified; nested sequences or mappings are rejected.
func stringList(key string, v any) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a list, got %T", key, v)
	}

	out := make([]string, 0, len(list))
	for i, el := range list {
		switch x := el.(type) {
		case string:
			out = append(out, x)
		case int, int64, uint64, float64, bool:
			out = append(out, fmt.Sprint(x))
		case time.Time:
			out = append(out, x.Format(time.DateOnly))
		default:
			return nil, fmt.Errorf("%s[%d] must be a scalar, got %T", key, i, el)
		}
	}
	return out, nil
}
