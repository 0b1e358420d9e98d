// Package cmd implements the sisync subcommands. Commands depend on the
// Context interface rather than the app package so they can be driven by
// a stub in tests.
package cmd

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/campusops/sisync/pkg/engine"
	"github.com/campusops/sisync/pkg/remote"
)

// Context provides the application dependencies commands need.
type Context interface {
	// Logger returns the application logger.
	Logger() *zerolog.Logger

	// Store builds the store for the configured remote API.
	Store() remote.Store

	// Runner builds a sync runner over the given store.
	Runner(store remote.Store) (*engine.Runner, error)

	// ValidateConfig checks the configuration required for a sync run.
	ValidateConfig() error

	// ValidateLocalConfig checks the configuration required for local
	// validation only.
	ValidateLocalConfig() error

	// Version information.
	Version() string
	Commit() string
	Date() string
	BuiltBy() string
}

// ExitError carries a process exit code out of a command. The run summary
// has already been logged when an ExitError is returned.
type ExitError struct {
	Code int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
