package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger bound to one component. Every record it writes
// carries a component attribute unless the call supplies its own.
type Logger struct {
	*slog.Logger
	component string
}

type Config struct {
	Level     slog.Level
	Component string
	// Handler overrides the default text handler on stdout.
	Handler slog.Handler
}

func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo, Component: ComponentApp}
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = NewHandler(os.Stdout, config.Level)
	}
	return &Logger{Logger: slog.New(handler), component: config.Component}
}

// NewHandler returns the text handler used across the binaries.
func NewHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

// SetDefault routes package-level slog calls through logger's handler.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), component: l.component}
}

func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger, component: component}
}

func (l *Logger) Component() string {
	return l.component
}

func (l *Logger) Debug(msg string, args ...any) { l.log(context.Background(), slog.LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.log(context.Background(), slog.LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(context.Background(), slog.LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.log(context.Background(), slog.LevelError, msg, args) }

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, args)
}

// Log writes at an arbitrary level, for callers that pick it at runtime.
func (l *Logger) Log(ctx context.Context, level slog.Level, msg string, args ...any) {
	l.log(ctx, level, msg, args)
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args []any) {
	if !l.Logger.Enabled(ctx, level) {
		return
	}
	if l.component != "" && !hasKey(args, FieldComponent) {
		args = append([]any{FieldComponent, l.component}, args...)
	}
	l.Logger.Log(ctx, level, msg, args...)
}

func hasKey(args []any, key string) bool {
	for i := 0; i < len(args)-1; i += 2 {
		if k, ok := args[i].(string); ok && k == key {
			return true
		}
	}
	return false
}
