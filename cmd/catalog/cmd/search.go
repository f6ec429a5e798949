package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/braint-ru/catalog/internal/output"
	"github.com/braint-ru/catalog/internal/search"
)

type searchOptions struct {
	limit  int
	format string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalogue",
		Long: `Search the catalogue. Every query word must occur in the title, aliases,
tags, category or id of an article; matches are ranked by where they occur.`,
		Example: `  catalog search магний
  catalog search "омега 3" --limit 10
  catalog search сон --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default: search.default_limit)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	if err := checkFormat(opts.format); err != nil {
		return err
	}
	a, err := newApp(logQuiet)
	if err != nil {
		return err
	}
	defer a.Close()

	results := a.engine.Search(cmd.Context(), query, opts.limit)
	if opts.format == "json" {
		return writeJSON(cmd.OutOrStdout(), results)
	}

	out := output.NewAuto(cmd.OutOrStdout())
	if len(results) == 0 {
		out.Warningf("No articles found for %q", query)
		return nil
	}
	out.Header(fmt.Sprintf("Results for %q", query))
	for _, r := range results {
		out.Item(r.ID, r.Title, describe(r))
	}
	return nil
}

func describe(s search.Summary) string {
	if len(s.Tags) == 0 {
		return s.Category
	}
	return s.Category + " · " + strings.Join(s.Tags, ", ")
}

func checkFormat(format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q: use text or json", format)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
