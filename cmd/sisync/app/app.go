// Package app provides the application context and dependency wiring for
// the sisync CLI: configuration, logging, and construction of the sync
// runner from configured options.
package app

import (
	"github.com/rs/zerolog"

	"github.com/campusops/sisync/cmd/sisync/cmd"
	"github.com/campusops/sisync/internal/transport"
	"github.com/campusops/sisync/pkg/engine"
	"github.com/campusops/sisync/pkg/entities"
	"github.com/campusops/sisync/pkg/errors"
	"github.com/campusops/sisync/pkg/remote"
)

// Ensure App satisfies the command context at compile time.
var _ cmd.Context = (*App)(nil)

// App represents the sisync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// ValidateConfig checks the configuration required for a sync run.
func (a *App) ValidateConfig() error { return a.config.Validate() }

// ValidateLocalConfig checks the configuration required for local
// validation only.
func (a *App) ValidateLocalConfig() error { return a.config.ValidateLocal() }

// Store builds the HTTP store for the configured remote API.
func (a *App) Store() remote.Store {
	client := transport.NewWithTimeout(a.config.Authenticator(), a.config.Timeout)
	return remote.NewHTTPStore(a.config.APIRoot, client)
}

// Runner builds a sync runner over the given store from the configured
// engine options.
func (a *App) Runner(store remote.Store) (*engine.Runner, error) {
	opts := []engine.Option{
		engine.WithConcurrency(a.config.Concurrency),
		engine.WithMaxTries(a.config.Retries),
	}

	for name, value := range a.config.DeletePolicies {
		policy, ok := engine.ParseDeletePolicy(value)
		if !ok {
			return nil, errors.NewConfigError("delete-policy",
				"unknown policy "+value+" for "+name)
		}
		opts = append(opts, engine.WithDeletePolicy(entities.Type(name), policy))
	}

	return engine.NewRunner(store, a.config.DataDir, opts...), nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}
