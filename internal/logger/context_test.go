package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestFromContext_FallsBackToGlobal checks that an empty context yields the global logger.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}

// TestWithKV_AttachesFields verifies that fields added to the context show up in entries.
func TestWithKV_AttachesFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())
	ctx = WithName(ctx, "bridge")
	ctx = WithKV(ctx, "device", "emulator-26101")
	ctx = WithFields(ctx, map[string]any{"remote": "/home/developer"})

	WarnKV(ctx, "File already exists", "local", "build/package.wgt")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.WarnLevel, entries[0].Level)
	require.Equal(t, "bridge", entries[0].LoggerName)

	fields := entries[0].ContextMap()
	require.Equal(t, "emulator-26101", fields["device"])
	require.Equal(t, "/home/developer", fields["remote"])
	require.Equal(t, "build/package.wgt", fields["local"])
}
