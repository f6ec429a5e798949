package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/braint-ru/catalog/internal/search"
	"github.com/braint-ru/catalog/pkg/version"
)

// ServerName is reported to MCP clients.
const ServerName = "catalog"

// Catalog is the read surface the MCP server needs. *search.Engine
// implements it.
type Catalog interface {
	Search(ctx context.Context, query string, limit int) []search.Summary
	Get(ctx context.Context, id string) (*search.Article, error)
	Categories(ctx context.Context) ([]search.CategoryGroup, error)
	Status() search.Status
}

var _ Catalog = (*search.Engine)(nil)

// Server is the MCP server for the catalogue.
type Server struct {
	mcp     *mcp.Server
	catalog Catalog
	logger  *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// SearchInput defines the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"free-text query, matched against title, aliases, tags, category and id"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 5, at most 50"`
}

// SearchOutput defines the output schema for the search tool.
type SearchOutput struct {
	Results []search.Summary `json:"results" jsonschema:"matching articles, best first"`
}

// GetArticleInput defines the input schema for the get_article tool.
type GetArticleInput struct {
	ID string `json:"id" jsonschema:"article id, as returned by search"`
}

// ArticleOutput defines the output schema for the get_article tool.
type ArticleOutput struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Category     string         `json:"category"`
	Tags         []string       `json:"tags"`
	Aliases      []string       `json:"aliases"`
	Path         string         `json:"path"`
	Body         string         `json:"body" jsonschema:"article body without the front matter header"`
	Metadata     map[string]any `json:"metadata" jsonschema:"every header field as written"`
	LastModified string         `json:"last_modified,omitempty" jsonschema:"RFC 3339 modification time, when known"`
}

func articleOutput(a *search.Article) ArticleOutput {
	out := ArticleOutput{
		ID:       a.ID,
		Title:    a.Title,
		Category: a.Category,
		Tags:     a.Tags,
		Aliases:  a.Aliases,
		Path:     a.Path,
		Body:     a.Body,
		Metadata: a.Metadata,
	}
	if !a.LastModified.IsZero() {
		out.LastModified = a.LastModified.UTC().Format(time.RFC3339)
	}
	return out
}

// ListCategoriesInput defines the (empty) input of list_categories.
type ListCategoriesInput struct{}

// CategoriesOutput defines the output schema for the list_categories tool.
type CategoriesOutput struct {
	Categories []search.CategoryGroup `json:"categories" jsonschema:"categories with their articles"`
}

var tools = []ToolInfo{
	{
		Name:        "search",
		Description: "Search the article catalogue. Matches every query word against titles, aliases, tags, categories and ids; Cyrillic ё/е and й/и are treated alike.",
	},
	{
		Name:        "get_article",
		Description: "Fetch one article with its full body and metadata by id.",
	},
	{
		Name:        "list_categories",
		Description: "List all categories with the titles and ids of their articles.",
	},
}

// NewServer creates a new MCP server over catalog.
func NewServer(catalog Catalog, logger *slog.Logger) (*Server, error) {
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		catalog: catalog,
		logger:  logger,
	}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	s.registerResources()
	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return ServerName, version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(tools))
	copy(out, tools)
	return out
}

// CallTool invokes a tool by name with JSON-decoded arguments and returns
// its markdown rendering.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "search":
		query, _ := args["query"].(string)
		limit := 0
		if l, ok := args["limit"].(float64); ok {
			limit = int(l)
		}
		md, _ := s.search(ctx, query, limit)
		return md, nil
	case "get_article":
		id, _ := args["id"].(string)
		md, _, err := s.getArticle(ctx, id)
		return md, err
	case "list_categories":
		md, _, err := s.listCategories(ctx)
		return md, err
	default:
		return "", NewMethodNotFoundError(name)
	}
}

func (s *Server) search(ctx context.Context, query string, limit int) (string, SearchOutput) {
	start := time.Now()
	requestID := generateRequestID()

	results := s.catalog.Search(ctx, query, limit)

	s.logger.Info("search completed",
		slog.String("request_id", requestID),
		slog.String("query", query),
		slog.Int("limit", limit),
		slog.Int("result_count", len(results)),
		slog.Duration("duration", time.Since(start)))

	return FormatSearchResults(query, results), SearchOutput{Results: results}
}

func (s *Server) getArticle(ctx context.Context, id string) (string, *search.Article, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", nil, NewInvalidParamsError("id parameter is required")
	}

	article, err := s.catalog.Get(ctx, id)
	if err != nil {
		s.logger.Info("get_article failed",
			slog.String("id", id),
			slog.String("error", err.Error()))
		return "", nil, MapError(err)
	}
	return FormatArticle(article), article, nil
}

func (s *Server) listCategories(ctx context.Context) (string, CategoriesOutput, error) {
	groups, err := s.catalog.Categories(ctx)
	if err != nil {
		s.logger.Error("list_categories failed", slog.String("error", err.Error()))
		return "", CategoriesOutput{}, MapError(err)
	}
	return FormatCategories(groups), CategoriesOutput{Categories: groups}, nil
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpSearchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpGetArticleHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.mcpListCategoriesHandler)
	s.logger.Debug("MCP tools registered", slog.Int("count", len(tools)))
}

// mcpSearchHandler is the MCP SDK handler for the search tool.
func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	md, out := s.search(ctx, input.Query, input.Limit)
	return textResult(md), out, nil
}

// mcpGetArticleHandler is the MCP SDK handler for the get_article tool.
func (s *Server) mcpGetArticleHandler(ctx context.Context, _ *mcp.CallToolRequest, input GetArticleInput) (
	*mcp.CallToolResult,
	ArticleOutput,
	error,
) {
	md, article, err := s.getArticle(ctx, input.ID)
	if err != nil {
		return nil, ArticleOutput{}, err
	}
	return textResult(md), articleOutput(article), nil
}

// mcpListCategoriesHandler is the MCP SDK handler for the list_categories tool.
func (s *Server) mcpListCategoriesHandler(ctx context.Context, _ *mcp.CallToolRequest, _ ListCategoriesInput) (
	*mcp.CallToolResult,
	CategoriesOutput,
	error,
) {
	md, out, err := s.listCategories(ctx)
	if err != nil {
		return nil, CategoriesOutput{}, err
	}
	return textResult(md), out, nil
}

func textResult(md string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: md}},
	}
}

// Serve runs the server over stdio until ctx is canceled or the client
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("Starting MCP server", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("MCP server stopped gracefully")
	return nil
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
