package cmd

import (
	"github.com/spf13/cobra"

	"github.com/campusops/sisync/pkg/report"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(appCtx Context) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the extract files against the remote API",
		Long: `Sync runs a full reconciliation: every entity type is loaded from its
extract file, mapped to canonical records, and diffed against the remote
API. Missing records are created, changed records updated, and records
that have left the extract removed according to each type's delete
policy.

Exit status is 0 when every record synced, 2 when the run completed but
some records failed, and 1 when a pass could not run at all.`,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			if err := appCtx.ValidateConfig(); err != nil {
				return err
			}

			runner, err := appCtx.Runner(appCtx.Store())
			if err != nil {
				return err
			}

			run := runner.Run(cobraCmd.Context())
			run.Log(appCtx.Logger())

			if code := run.ExitCode(); code != report.ExitSuccess {
				return &ExitError{Code: code}
			}
			return nil
		},
	}
}
