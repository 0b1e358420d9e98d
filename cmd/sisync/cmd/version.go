package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(appCtx Context) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cobraCmd *cobra.Command, _ []string) {
			out := cobraCmd.OutOrStdout()
			fmt.Fprintf(out, "sisync %s\n", appCtx.Version())
			fmt.Fprintf(out, "  commit:   %s\n", appCtx.Commit())
			fmt.Fprintf(out, "  built:    %s\n", appCtx.Date())
			fmt.Fprintf(out, "  built by: %s\n", appCtx.BuiltBy())
		},
	}
}
