package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/campusops/sisync/cmd/sisync/cmd"
	"github.com/campusops/sisync/pkg/errors"
)

// Execute runs the sisync CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "sisync",
		Short:   "School information system snapshot reconciler",
		Version: a.version,
		Long: `Sisync reconciles the legacy registrar export against the school's
web-based student information system.

Each run reads the converted per-entity extract files, maps them to
canonical records, and brings the remote API to the same state:
creating missing records, updating changed ones, and removing records
that have left the extract. Runs are idempotent; a second run against
an unchanged extract performs no writes.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.PersistentFlags().StringVar(&a.config.ConfigFile, "config", "", "config file (default is $HOME/.sisync.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().BoolVar(&a.config.NoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&a.config.LogLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	rootCmd.PersistentFlags().StringVar(&a.config.DataDir, "data-dir", a.config.DataDir, "directory holding the converted extract files")
	rootCmd.PersistentFlags().StringToStringVar(&a.config.DeletePolicies, "delete-policy", a.config.DeletePolicies, "per-type delete policy override, e.g. students=deactivate")

	rootCmd.SetVersionTemplate("sisync {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cobraCmd *cobra.Command, _ []string) error {
	verbose := mustGetBool(cobraCmd, "verbose")
	quiet := mustGetBool(cobraCmd, "quiet")
	noColor := mustGetBool(cobraCmd, "no-color")
	logLevel := mustGetString(cobraCmd, "log-level")

	a.config.UpdateFromFlags(verbose, quiet, noColor, logLevel)

	// Reinitialize logger with updated config
	logger := NewLogger(a.config)
	a.logger = &logger

	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(cmd.NewSyncCommand(a))
	rootCmd.AddCommand(cmd.NewValidateCommand(a))
	rootCmd.AddCommand(cmd.NewVersionCommand(a))
}

// ExitOnError is the top-level error handler used by main. Run outcomes
// carry their own exit code; everything else prints and exits 1.
func ExitOnError(err error) {
	if err == nil {
		return
	}
	var exitErr *cmd.ExitError
	if errors.As(err, &exitErr) {
		// The run summary was already logged.
		os.Exit(exitErr.Code)
	}
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}

// mustGetBool retrieves a boolean flag value or panics if the flag does
// not exist. Only for flags defined in this package.
func mustGetBool(cobraCmd *cobra.Command, name string) bool {
	val, err := cobraCmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag does
// not exist. Only for flags defined in this package.
func mustGetString(cobraCmd *cobra.Command, name string) string {
	val, err := cobraCmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
