package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/braint-ru/catalog/internal/output"
)

type listOptions struct {
	byCategory bool
	format     string
}

func newListCmd() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all articles",
		Long:  `List all articles ordered by title, or grouped by category with --categories.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.byCategory, "categories", "c", false, "Group articles by category")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runList(cmd *cobra.Command, opts listOptions) error {
	if err := checkFormat(opts.format); err != nil {
		return err
	}
	a, err := newApp(logQuiet)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	out := output.NewAuto(cmd.OutOrStdout())

	if opts.byCategory {
		groups, err := a.engine.Categories(ctx)
		if err != nil {
			return err
		}
		if opts.format == "json" {
			return writeJSON(cmd.OutOrStdout(), groups)
		}
		for _, g := range groups {
			out.Header(fmt.Sprintf("%s (%d)", g.Name, len(g.Articles)))
			for _, s := range g.Articles {
				out.Item(s.ID, s.Title, "")
			}
			out.Newline()
		}
		return nil
	}

	list, err := a.engine.List(ctx)
	if err != nil {
		return err
	}
	if opts.format == "json" {
		return writeJSON(cmd.OutOrStdout(), list)
	}
	for _, s := range list {
		out.Item(s.ID, s.Title, s.Category)
	}
	out.Newline()
	out.Statusf("", "%d articles", len(list))
	return nil
}
