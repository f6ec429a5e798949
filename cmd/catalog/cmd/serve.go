package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/braint-ru/catalog/internal/api"
)

type serveOptions struct {
	addr    string
	noWatch bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the catalogue over HTTP.

Endpoints:
  GET /api/search?q=&limit=          ranked search
  GET /api/articles                  all articles by title
  GET /api/articles/{id}             one article with body and metadata
  GET /api/articles/{id}/neighbors   previous and next article by title
  GET /api/categories                articles grouped by category
  GET /api/status                    index, cache and query statistics
  GET /healthz                       liveness`,
		Example: `  catalog serve
  catalog serve --addr 127.0.0.1:8080 --no-watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "Disable the change watcher")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	a, err := newApp(logServer)
	if err != nil {
		return err
	}
	defer a.Close()

	srvOpts := api.Options{
		Addr:           a.cfg.Server.Addr,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		RateLimit:      a.cfg.Server.RateLimit,
		RateBurst:      a.cfg.Server.RateBurst,
		ReadTimeout:    a.cfg.ReadTimeout(),
		WriteTimeout:   a.cfg.WriteTimeout(),
	}
	if opts.addr != "" {
		srvOpts.Addr = opts.addr
	}
	srv, err := api.NewServer(a.engine, srvOpts, a.logger)
	if err != nil {
		return err
	}

	// Warm the index so the first request does not pay for the load.
	if _, err := a.engine.List(ctx); err != nil {
		a.logger.Warn("initial load failed", slog.String("error", err.Error()))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})
	if a.cfg.WatchEnabled() && !opts.noWatch {
		g.Go(func() error {
			return a.runWatcher(gctx)
		})
	}
	return g.Wait()
}
