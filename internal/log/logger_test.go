package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestL_AddsRequestScopedFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetGlobal(zap.New(core))
	t.Cleanup(func() { SetGlobal(nil) })

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithTripID(ctx, "nile-cruise-7d")
	Info(ctx, "quote calculated", zap.String("final_price", "800"))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "nile-cruise-7d", fields["trip_id"])
	assert.Equal(t, "800", fields["final_price"])
	assert.NotContains(t, fields, "trace_id")
	assert.Equal(t, "req-1", RequestID(ctx))
}

func TestInit(t *testing.T) {
	t.Cleanup(func() { SetGlobal(nil) })

	require.NoError(t, Init("debug", "json"))
	assert.True(t, L(context.Background()).Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init("not-a-level", "console"))
	assert.False(t, L(context.Background()).Core().Enabled(zapcore.DebugLevel))
}
