package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braint-ru/catalog/internal/cache"
	"github.com/braint-ru/catalog/internal/content"
	"github.com/braint-ru/catalog/internal/index"
	"github.com/braint-ru/catalog/internal/search"
)

func testCatalog(t *testing.T) *search.Engine {
	t.Helper()
	fsys := fstest.MapFS{
		"magniy.mdx": &fstest.MapFile{
			Data: []byte("---\ntitle: Магний\ncategory: Минералы\ntags: [сон, стресс]\naliases: [magnesium]\n---\nМагний нужен для сна.\n"),
		},
		"zinc.mdx": &fstest.MapFile{
			Data: []byte("---\ntitle: Цинк\ncategory: Минералы\ntags: [иммунитет]\n---\nЦинк.\n"),
		},
		"omega.mdx": &fstest.MapFile{
			Data: []byte("---\ntitle: Омега-3\ncategory: Жирные кислоты\ntags: [сердце]\n---\nРыбий жир.\n"),
		},
	}
	store := index.New(content.NewLoader(content.NewFSSource(fsys, "mem")), index.WithTTL(time.Hour))
	t.Cleanup(func() { _ = store.Close() })
	engine, err := search.NewEngine(store, cache.New[[]search.Summary](), search.DefaultEngineConfig())
	require.NoError(t, err)
	return engine
}

func testServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(testCatalog(t), nil)
	require.NoError(t, err)
	return s
}

func TestServer_New_NilCatalog_ReturnsError(t *testing.T) {
	_, err := NewServer(nil, nil)
	require.Error(t, err)
}

func TestServer_Info_ReturnsCorrectValues(t *testing.T) {
	s := testServer(t)

	name, ver := s.Info()

	assert.Equal(t, "catalog", name)
	assert.NotEmpty(t, ver)
	assert.NotNil(t, s.MCPServer())
}

func TestServer_ListTools_ReturnsRegisteredTools(t *testing.T) {
	s := testServer(t)

	names := make([]string, 0)
	for _, tool := range s.ListTools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
	}

	assert.Equal(t, []string{"search", "get_article", "list_categories"}, names)
}

func TestServer_CallTool_Search(t *testing.T) {
	// Given: a server over a small catalogue
	s := testServer(t)

	// When: searching by tag
	md, err := s.CallTool(context.Background(), "search", map[string]any{"query": "сон", "limit": float64(5)})

	// Then: the matching article is rendered
	require.NoError(t, err)
	assert.Contains(t, md, "Search Results for \"сон\"")
	assert.Contains(t, md, "Found 1 article\n")
	assert.Contains(t, md, "Магний")
	assert.Contains(t, md, "`magniy`")
}

func TestServer_CallTool_SearchEmptyQuery_NoResults(t *testing.T) {
	s := testServer(t)

	md, err := s.CallTool(context.Background(), "search", map[string]any{"query": "   "})

	require.NoError(t, err)
	assert.Contains(t, md, "No articles found")
}

func TestServer_CallTool_GetArticle(t *testing.T) {
	s := testServer(t)

	md, err := s.CallTool(context.Background(), "get_article", map[string]any{"id": "magniy"})

	require.NoError(t, err)
	assert.Contains(t, md, "# Магний")
	assert.Contains(t, md, "**Also known as:** magnesium")
	assert.Contains(t, md, "Магний нужен для сна.")
}

func TestServer_CallTool_GetArticle_NotFound(t *testing.T) {
	// Given: a server
	s := testServer(t)

	// When: fetching an id that is close to a known one
	_, err := s.CallTool(context.Background(), "get_article", map[string]any{"id": "magn"})

	// Then: a not-found MCP error with a suggestion is returned
	require.Error(t, err)
	mcpErr := MapError(err)
	assert.Equal(t, ErrCodeArticleNotFound, mcpErr.Code)
	assert.Contains(t, mcpErr.Message, "magniy")
}

func TestServer_CallTool_GetArticle_MissingID(t *testing.T) {
	s := testServer(t)

	_, err := s.CallTool(context.Background(), "get_article", map[string]any{})

	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidParams, MapError(err).Code)
}

func TestServer_CallTool_ListCategories(t *testing.T) {
	s := testServer(t)

	md, err := s.CallTool(context.Background(), "list_categories", nil)

	require.NoError(t, err)
	assert.Contains(t, md, "### Жирные кислоты (1)")
	assert.Contains(t, md, "### Минералы (2)")
	assert.Less(t, strings.Index(md, "Жирные кислоты"), strings.Index(md, "Минералы"))
}

func TestServer_CallTool_UnknownTool_ReturnsError(t *testing.T) {
	s := testServer(t)

	_, err := s.CallTool(context.Background(), "delete_everything", nil)

	require.Error(t, err)
	assert.Equal(t, ErrCodeMethodNotFound, MapError(err).Code)
}

func TestServer_SDKHandlers_ReturnStructuredOutput(t *testing.T) {
	// Given: a server
	s := testServer(t)
	ctx := context.Background()

	// When: calling the SDK handlers directly
	res, out, err := s.mcpSearchHandler(ctx, nil, SearchInput{Query: "минералы", Limit: 1})
	require.NoError(t, err)

	// Then: text content and structured output agree
	require.Len(t, out.Results, 1)
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)

	_, article, err := s.mcpGetArticleHandler(ctx, nil, GetArticleInput{ID: "zinc"})
	require.NoError(t, err)
	assert.Equal(t, "Цинк", article.Title)
	assert.Equal(t, "/articles/zinc", article.Path)

	_, cats, err := s.mcpListCategoriesHandler(ctx, nil, ListCategoriesInput{})
	require.NoError(t, err)
	assert.Len(t, cats.Categories, 2)
}

func TestServer_StatusJSON(t *testing.T) {
	// Given: a server that has served one search
	s := testServer(t)
	_, err := s.CallTool(context.Background(), "search", map[string]any{"query": "цинк"})
	require.NoError(t, err)

	// When: rendering status
	data, err := s.StatusJSON()
	require.NoError(t, err)

	// Then: the index section reports the loaded records
	var st map[string]any
	require.NoError(t, json.Unmarshal(data, &st))
	idx, ok := st["index"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), idx["records"])

	res, err := s.handleStatusResource(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, StatusURI, res.Contents[0].URI)
}
