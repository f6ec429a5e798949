package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/braint-ru/catalog/internal/output"
)

func newShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runShow(cmd *cobra.Command, id, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	a, err := newApp(logQuiet)
	if err != nil {
		return err
	}
	defer a.Close()

	article, err := a.engine.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	if format == "json" {
		return writeJSON(cmd.OutOrStdout(), article)
	}

	out := output.NewAuto(cmd.OutOrStdout())
	out.Header(article.Title)
	out.KeyValue("ID", article.ID)
	out.KeyValue("Category", article.Category)
	if len(article.Tags) > 0 {
		out.KeyValue("Tags", strings.Join(article.Tags, ", "))
	}
	if len(article.Aliases) > 0 {
		out.KeyValue("Aliases", strings.Join(article.Aliases, ", "))
	}
	out.KeyValue("Path", article.Path)
	if !article.LastModified.IsZero() {
		out.KeyValue("Modified", article.LastModified.Format("2006-01-02 15:04"))
	}
	out.Newline()
	out.Code(strings.TrimSpace(article.Body))
	return nil
}
