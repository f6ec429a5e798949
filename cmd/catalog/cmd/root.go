// Package cmd provides the CLI commands for catalog.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/braint-ru/catalog/internal/profiling"
	"github.com/braint-ru/catalog/pkg/version"
)

// Global flags.
var (
	debugMode  bool
	configPath string
	profile    profiling.Options
	session    *profiling.Session
)

// NewRootCmd creates the root command for the catalog CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Searchable article catalogue over a directory of content files",
		Long: `catalog indexes a directory of articles with metadata headers and answers
free-text search, listing and lookup requests over HTTP, MCP or the command line.

The index is held in memory, refreshed on a TTL and whenever the change
watcher sees an article added, edited or removed.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("catalog version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.catalog/logs/")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a project config file (default: ./catalog.yaml)")
	cmd.PersistentFlags().StringVar(&profile.CPUPath, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profile.HeapPath, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profile.TracePath, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfiling
	cmd.PersistentPostRunE = stopProfiling

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startProfiling(_ *cobra.Command, _ []string) error {
	if !profile.Enabled() {
		return nil
	}
	s, err := profiling.Start(profile)
	if err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}
	session = s
	return nil
}

func stopProfiling(_ *cobra.Command, _ []string) error {
	if session == nil {
		return nil
	}
	err := session.Stop()
	session = nil
	if err != nil {
		return fmt.Errorf("failed to write profiles: %w", err)
	}
	return nil
}

// Execute runs the root command, cancelling its context on SIGINT or
// SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
