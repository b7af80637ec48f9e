package log

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// NewContext returns ctx carrying logger. The trace middleware stores the
// request-scoped logger this way.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored by NewContext, or one over the slog
// default with component "unknown".
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}
