package cmd

import (
	"github.com/spf13/cobra"

	"github.com/campusops/sisync/pkg/remote"
	"github.com/campusops/sisync/pkg/report"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(appCtx Context) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the extract files without touching the remote API",
		Long: `Validate loads and maps every extract file exactly as a sync run would,
reporting malformed files, invalid records, and unresolved references,
but performs no remote reads or writes. Use it to vet a fresh export
before syncing.`,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			if err := appCtx.ValidateLocalConfig(); err != nil {
				return err
			}

			// Validation never touches the store; the in-memory one
			// satisfies the runner without remote configuration.
			runner, err := appCtx.Runner(remote.NewMemoryStore())
			if err != nil {
				return err
			}

			run := runner.Validate(cobraCmd.Context())
			run.Log(appCtx.Logger())

			if code := run.ExitCode(); code != report.ExitSuccess {
				return &ExitError{Code: code}
			}
			return nil
		},
	}
}
