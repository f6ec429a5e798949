package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/braint-ru/catalog/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the catalogue as an MCP server over stdio",
		Long: `Run an MCP server on stdin/stdout exposing the tools search, get_article
and list_categories, plus the catalog://status resource.

Logs go to the configured log file (default ~/.catalog/logs/server.log);
nothing but JSON-RPC is written to stdout.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCP(cmd.Context())
		},
	}
}

func runMCP(ctx context.Context) error {
	a, err := newApp(logMCP)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := mcp.NewServer(a.engine, a.logger)
	if err != nil {
		return err
	}

	// The watcher must stop when the client disconnects.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return srv.Serve(gctx)
	})
	if a.cfg.WatchEnabled() {
		g.Go(func() error {
			return a.runWatcher(gctx)
		})
	}
	return g.Wait()
}
