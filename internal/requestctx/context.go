// Package requestctx carries the request logger and trace id between middleware,
// handlers and the problem writer.
package requestctx

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	traceIDKey
)

var nop = zap.NewNop()

// WithLogger attaches logger to ctx. A nil logger is stored as a no-op logger.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		logger = nop
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// LookupLogger returns the logger attached to ctx, if any.
func LookupLogger(ctx context.Context) (*zap.Logger, bool) {
	logger, ok := ctx.Value(loggerKey).(*zap.Logger)
	return logger, ok && logger != nil
}

// Logger returns the request logger, or a no-op logger outside a request.
func Logger(ctx context.Context) *zap.Logger {
	if logger, ok := LookupLogger(ctx); ok {
		return logger
	}
	return nop
}

// WithTraceID records the id of the server span handling the request.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID returns the recorded trace id, or "" when the request is not traced.
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}
