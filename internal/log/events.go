package log

import (
	"context"
	"log/slog"
	"net/http"

	"gasolina/internal/core"
)

// StructuredLogger writes the fixed set of application events with
// consistent field names.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs 4xx as warnings and 5xx as errors.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogEntryCreated(ctx context.Context, e core.Entry) {
	fields := NewFields().
		WithEntry(e).
		WithOperation(OpCreate).
		WithComponent(ComponentEntry)

	sl.logger.InfoContext(ctx, "Fill-up recorded", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogEntryDeleted(ctx context.Context, id int64) {
	fields := NewFields().
		WithOperation(OpDelete).
		WithComponent(ComponentEntry)
	fields[FieldEntryID] = id

	sl.logger.InfoContext(ctx, "Fill-up deleted", fields.ToSlice()...)
}

// LogBudgetAlert logs a threshold crossing as a warning and overspending as an error.
func (sl *StructuredLogger) LogBudgetAlert(ctx context.Context, month string, b core.BudgetStatus) {
	fields := NewFields().
		WithBudget(month, b).
		WithComponent(ComponentWorker)

	if b.OverBudget {
		sl.logger.ErrorContext(ctx, "Monthly fuel budget exceeded", fields.ToSlice()...)
		return
	}
	sl.logger.WarnContext(ctx, "Monthly fuel budget threshold reached", fields.ToSlice()...)
}

// LogError logs err with the component and operation it happened in. fields may be nil.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.ErrorContext(ctx, msg, fields.ToSlice()...)
}
