package requestctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoggerOutsideRequest(t *testing.T) {
	_, ok := LookupLogger(context.Background())
	require.False(t, ok)
	require.NotNil(t, Logger(context.Background()))
}

func TestWithLogger(t *testing.T) {
	logger := zap.NewExample()
	ctx := WithLogger(context.Background(), logger)
	got, ok := LookupLogger(ctx)
	require.True(t, ok)
	require.Same(t, logger, got)
	require.Same(t, logger, Logger(ctx))

	require.NotNil(t, Logger(WithLogger(context.Background(), nil)))
}

func TestTraceID(t *testing.T) {
	require.Empty(t, TraceID(context.Background()))
	require.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736",
		TraceID(WithTraceID(context.Background(), "4bf92f3577b34da6a3ce929d0e0e4736")))
}
