package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Equal(t, Default(), FromContext(context.Background()))
	assert.Equal(t, Default(), FromContext(nil)) //nolint:staticcheck // nil context is part of the contract
}

func TestWithLoggerRoundTrip(t *testing.T) {
	tl := NewTestLogger(t)
	ctx := WithLogger(context.Background(), tl.Logger)

	FromContext(ctx).Info().Msg("from context")
	assert.True(t, tl.Contains("from context"))
}

func TestWithRunID(t *testing.T) {
	tl := NewTestLogger(t)
	ctx := WithLogger(context.Background(), tl.Logger)
	ctx = WithRunID(ctx, "run-123")

	assert.Equal(t, "run-123", RunID(ctx))

	Ctx(ctx).Info().Msg("tagged")
	assert.True(t, tl.Contains("run-123"))
}

func TestWithEntity(t *testing.T) {
	tl := NewTestLogger(t)
	ctx := WithLogger(context.Background(), tl.Logger)
	ctx = WithEntity(ctx, "sections")

	Ctx(ctx).Info().Msg("pass started")
	assert.True(t, tl.Contains(`"entity":"sections"`))
}
