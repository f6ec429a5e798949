// Package api serves the catalogue over HTTP as JSON.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/braint-ru/catalog/internal/search"
)

// Catalog is the read surface the HTTP API needs. *search.Engine
// implements it.
type Catalog interface {
	Search(ctx context.Context, query string, limit int) []search.Summary
	Get(ctx context.Context, id string) (*search.Article, error)
	List(ctx context.Context) ([]search.Summary, error)
	Categories(ctx context.Context) ([]search.CategoryGroup, error)
	Neighbors(ctx context.Context, id string) (search.Neighbors, error)
	Status() search.Status
}

var _ Catalog = (*search.Engine)(nil)

// Options configures the HTTP server.
type Options struct {
	Addr           string
	AllowedOrigins []string
	// RateLimit is the sustained request rate per second. 0 disables
	// rate limiting.
	RateLimit    float64
	RateBurst    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Addr:           ":5000",
		AllowedOrigins: []string{"http://localhost:3000"},
		RateLimit:      50,
		RateBurst:      100,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
	}
}

// Server is the HTTP front of the catalogue.
type Server struct {
	catalog Catalog
	opts    Options
	logger  *slog.Logger
	limiter *rate.Limiter // nil when disabled
	handler http.Handler
}

// NewServer builds the router and middleware chain over catalog.
func NewServer(catalog Catalog, opts Options, logger *slog.Logger) (*Server, error) {
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RateLimit < 0 {
		return nil, fmt.Errorf("rate limit must not be negative, got %v", opts.RateLimit)
	}

	s := &Server{
		catalog: catalog,
		opts:    opts,
		logger:  logger,
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	// CORS and rate limiting wrap the whole router so that preflight
	// requests and unmatched paths pass through them too.
	s.handler = s.logRequests(s.cors(s.rateLimit(s.routes())))
	return s, nil
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = router.NotFoundHandler
	api.MethodNotAllowedHandler = router.MethodNotAllowedHandler
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	api.HandleFunc("/articles", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/articles/{id}", s.handleArticle).Methods(http.MethodGet)
	api.HandleFunc("/articles/{id}/neighbors", s.handleNeighbors).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleCategories).Methods(http.MethodGet)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	return router
}

// Handler returns the full handler chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("HTTP server listening", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
