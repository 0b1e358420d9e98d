package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/sisync/pkg/engine"
	"github.com/campusops/sisync/pkg/errors"
	"github.com/campusops/sisync/pkg/logging"
	"github.com/campusops/sisync/pkg/remote"
)

// stubContext drives commands in tests without the app package.
type stubContext struct {
	logger    *zerolog.Logger
	store     remote.Store
	dataDir   string
	configErr error
}

func (s *stubContext) Logger() *zerolog.Logger { return s.logger }
func (s *stubContext) Store() remote.Store     { return s.store }
func (s *stubContext) Runner(store remote.Store) (*engine.Runner, error) {
	return engine.NewRunner(store, s.dataDir), nil
}
func (s *stubContext) ValidateConfig() error      { return s.configErr }
func (s *stubContext) ValidateLocalConfig() error { return s.configErr }
func (s *stubContext) Version() string            { return "1.2.3" }
func (s *stubContext) Commit() string             { return "abc1234" }
func (s *stubContext) Date() string               { return "2026-08-30" }
func (s *stubContext) BuiltBy() string            { return "test" }

func newStubContext(t *testing.T) *stubContext {
	t.Helper()
	return &stubContext{
		logger:  logging.NewNopLogger(),
		store:   remote.NewMemoryStore(),
		dataDir: t.TempDir(),
	}
}

func TestSyncCommandFailsFastOnConfigError(t *testing.T) {
	appCtx := newStubContext(t)
	appCtx.configErr = errors.NewConfigError("api-root", "missing")

	cmd := NewSyncCommand(appCtx)
	cmd.SetArgs(nil)
	err := cmd.ExecuteContext(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestSyncCommandReportsFailedRunInExitCode(t *testing.T) {
	// An empty data directory means every extract file is missing, so
	// every pass fails and the run exits 1.
	appCtx := newStubContext(t)

	cmd := NewSyncCommand(appCtx)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(context.Background())

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
}

func TestValidateCommandReportsFailedRunInExitCode(t *testing.T) {
	appCtx := newStubContext(t)

	cmd := NewValidateCommand(appCtx)
	err := cmd.ExecuteContext(context.Background())

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
}

func TestVersionCommandPrintsVersionInfo(t *testing.T) {
	appCtx := newStubContext(t)

	var out bytes.Buffer
	cmd := NewVersionCommand(appCtx)
	cmd.SetOut(&out)
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "sisync 1.2.3")
	assert.Contains(t, out.String(), "abc1234")
}
