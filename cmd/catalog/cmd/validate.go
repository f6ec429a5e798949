package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/braint-ru/catalog/internal/output"
)

func newValidateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check every article header",
		Long: `Load the content directory once and report articles that would be skipped:
missing or empty title or category, missing tags, malformed headers and
duplicate ids.

With --strict the command fails when any article is skipped, which makes it
suitable as a CI check.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any article is skipped")

	return cmd
}

func runValidate(cmd *cobra.Command, strict bool) error {
	a, err := newApp(logQuiet)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.loader.Load(cmd.Context())
	if err != nil {
		return err
	}

	out := output.NewAuto(cmd.OutOrStdout())
	out.KeyValue("Directory", a.contentDir)
	out.KeyValue("Loaded", fmt.Sprint(len(result.Records)))
	out.KeyValue("Skipped", fmt.Sprint(len(result.Skipped)))

	if len(result.Skipped) == 0 {
		out.Newline()
		out.Success("All articles are valid")
		return nil
	}

	out.Newline()
	for _, s := range result.Skipped {
		out.Errorf("%s: %v", s.Item, s.Err)
	}
	if strict {
		return fmt.Errorf("%d of %d articles failed validation",
			len(result.Skipped), len(result.Records)+len(result.Skipped))
	}
	return nil
}
