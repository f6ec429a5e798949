package content

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	cerrors "github.com/braint-ru/catalog/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mdx(header, body string) *fstest.MapFile {
	return &fstest.MapFile{
		Data:    []byte("---\n" + header + "---\n" + body),
		ModTime: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLoader_Load_SkipsMalformedRecord(t *testing.T) {
	// Given: three items where one lacks its category
	fsys := fstest.MapFS{
		"a.mdx": mdx("title: Альфа\ncategory: Минералы\ntags: [сон]\n", "A"),
		"b.mdx": mdx("title: Бета\ntags: []\n", "B"),
		"c.mdx": mdx("title: Гамма\ncategory: Травы\ntags: []\n", "C"),
	}
	loader := NewLoader(NewFSSource(fsys, "mem"))

	// When: loading
	result, err := loader.Load(context.Background())

	// Then: two records are returned and the bad one is reported
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "a", result.Records[0].ID)
	assert.Equal(t, "c", result.Records[1].ID)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "b.mdx", result.Skipped[0].Item)
	assert.Equal(t, cerrors.ErrCodeMalformedRecord, cerrors.GetCode(result.Skipped[0].Err))
}

func TestLoader_Load_PopulatesRecord(t *testing.T) {
	fsys := fstest.MapFS{
		"magniy.mdx": mdx("title: Магний\ncategory: Минералы\ntags: [сон, стресс]\naliases: [Mg]\nsource: book\n", "# Магний\n"),
	}
	loader := NewLoader(NewFSSource(fsys, "mem"), WithPathPrefix("/articles/"))

	result, err := loader.Load(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	rec := result.Records[0]
	assert.Equal(t, "magniy", rec.ID)
	assert.Equal(t, "Магний", rec.Title)
	assert.Equal(t, "Минералы", rec.Category)
	assert.Equal(t, []string{"сон", "стресс"}, rec.Tags)
	assert.Equal(t, []string{"Mg"}, rec.Aliases)
	assert.Equal(t, "/articles/magniy", rec.Path)
	assert.Equal(t, "# Магний\n", rec.Body)
	assert.Equal(t, "book", rec.Metadata["source"])
	assert.True(t, rec.LastModified.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestLoader_Load_IgnoresOtherExtensionsAndDirs(t *testing.T) {
	fsys := fstest.MapFS{
		"a.mdx":        mdx("title: A\ncategory: C\ntags: []\n", ""),
		"notes.md":     mdx("title: N\ncategory: C\ntags: []\n", ""),
		"UPPER.MDX":    mdx("title: U\ncategory: C\ntags: []\n", ""),
		"nested/b.mdx": mdx("title: B\ncategory: C\ntags: []\n", ""),
		"image.png":    &fstest.MapFile{Data: []byte{0x89}},
		".mdx":         mdx("title: E\ncategory: C\ntags: []\n", ""),
	}

	result, err := NewLoader(NewFSSource(fsys, "mem")).Load(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "a", result.Records[0].ID)
	assert.Empty(t, result.Skipped)
}

func TestLoader_Load_SkipsHiddenAndBackupFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"a.mdx":       mdx("title: A\ncategory: C\ntags: []\n", ""),
		".draft.mdx":  mdx("title: D\ncategory: C\ntags: []\n", ""),
		"#b.mdx":      mdx("title: L\ncategory: C\ntags: []\n", ""),
		"a.mdx.orig~": mdx("title: O\ncategory: C\ntags: []\n", ""),
	}

	result, err := NewLoader(NewFSSource(fsys, "mem")).Load(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "a", result.Records[0].ID)
}

func TestIsItemName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"magniy.mdx", true},
		{".mdx", false},
		{"", false},
		{".draft.mdx", false},
		{"#magniy.mdx", false},
		{"magniy.mdx~", false},
		{"magniy.md", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsItemName(tt.name, ".mdx"))
		})
	}
}

func TestLoader_Load_CustomExtension(t *testing.T) {
	fsys := fstest.MapFS{
		"a.md":  mdx("title: A\ncategory: C\ntags: []\n", ""),
		"b.mdx": mdx("title: B\ncategory: C\ntags: []\n", ""),
	}

	result, err := NewLoader(NewFSSource(fsys, "mem"), WithExtension(".md")).Load(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "a", result.Records[0].ID)
}

func TestLoader_Load_TOMLHeader(t *testing.T) {
	fsys := fstest.MapFS{
		"zinc.mdx": &fstest.MapFile{Data: []byte("+++\ntitle = \"Цинк\"\ncategory = \"Минералы\"\ntags = [\"иммунитет\", 2024]\n+++\nbody")},
	}

	result, err := NewLoader(NewFSSource(fsys, "mem")).Load(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, []string{"иммунитет", "2024"}, result.Records[0].Tags)
}

func TestLoader_Load_SourceUnavailable(t *testing.T) {
	// Given: a directory that does not exist
	src := NewDirSource(filepath.Join(t.TempDir(), "missing"))

	// When: loading
	result, err := NewLoader(src).Load(context.Background())

	// Then: an empty result and a SourceUnavailable error
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeSourceUnavailable, cerrors.GetCode(err))
	assert.Empty(t, result.Records)
	assert.NotNil(t, result.Records)
}

func TestLoader_Load_DuplicateIDFirstWins(t *testing.T) {
	src := &stubSource{items: []Item{
		&stubItem{name: "a.mdx", raw: "---\ntitle: First\ncategory: C\ntags: []\n---\n"},
		&stubItem{name: "a.mdx", raw: "---\ntitle: Second\ncategory: C\ntags: []\n---\n"},
	}}

	result, err := NewLoader(src).Load(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "First", result.Records[0].Title)
	require.Len(t, result.Skipped, 1)
}

func TestLoader_Load_ItemReadFailureSkipsItem(t *testing.T) {
	src := &stubSource{items: []Item{
		&stubItem{name: "a.mdx", err: errors.New("permission denied")},
		&stubItem{name: "b.mdx", raw: "---\ntitle: B\ncategory: C\ntags: []\n---\n"},
	}}

	result, err := NewLoader(src).Load(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "b", result.Records[0].ID)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, cerrors.ErrCodeItemRead, cerrors.GetCode(result.Skipped[0].Err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		meta    map[string]any
		wantErr bool
		aliases []string
	}{
		{
			name:    "minimal",
			meta:    map[string]any{"title": "T", "category": "C", "tags": []any{}},
			aliases: []string{},
		},
		{
			name:    "alias as single string",
			meta:    map[string]any{"title": "T", "category": "C", "tags": []any{}, "aliases": "Mg"},
			aliases: []string{"Mg"},
		},
		{
			name:    "nil header",
			meta:    nil,
			wantErr: true,
		},
		{
			name:    "missing tags",
			meta:    map[string]any{"title": "T", "category": "C"},
			wantErr: true,
		},
		{
			name:    "tags not a list",
			meta:    map[string]any{"title": "T", "category": "C", "tags": "сон"},
			wantErr: true,
		},
		{
			name:    "nested tag",
			meta:    map[string]any{"title": "T", "category": "C", "tags": []any{[]any{"x"}}},
			wantErr: true,
		},
		{
			name:    "blank title",
			meta:    map[string]any{"title": "  ", "category": "C", "tags": []any{}},
			wantErr: true,
		},
		{
			name:    "numeric category",
			meta:    map[string]any{"title": "T", "category": 7, "tags": []any{}},
			wantErr: true,
		},
		{
			name:    "aliases wrong type",
			meta:    map[string]any{"title": "T", "category": "C", "tags": []any{}, "aliases": 3},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Validate("id", tt.meta)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.aliases, rec.Aliases)
		})
	}
}

type stubSource struct {
	items []Item
	err   error
}

func (s *stubSource) List(context.Context) ([]Item, error) { return s.items, s.err }
func (s *stubSource) String() string                       { return "stub" }

type stubItem struct {
	name string
	raw  string
	err  error
}

func (i *stubItem) Name() string { return i.name }

func (i *stubItem) ReadRaw(context.Context) ([]byte, error) {
	if i.err != nil {
		return nil, i.err
	}
	return []byte(i.raw), nil
}

func (i *stubItem) LastModified() (time.Time, error) { return time.Time{}, nil }
