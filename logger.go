package fps

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with sampling-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithKernel adds a kernel field to the logger.
func (l *Logger) WithKernel(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("kernel", name),
	}
}

// WithBatch adds batch size and candidate count fields to the logger.
func (l *Logger) WithBatch(b, n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("b", b, "n", n),
	}
}

// LogSample logs a sampling call.
func (l *Logger) LogSample(ctx context.Context, name string, b, n, m int, err error) {
	lg := l.WithKernel(name).WithBatch(b, n)
	if err != nil {
		lg.ErrorContext(ctx, "sampling failed", "num_points", m, "error", err)
	} else {
		lg.DebugContext(ctx, "sampling completed", "num_points", m)
	}
}

// LogGather logs a gather call.
func (l *Logger) LogGather(ctx context.Context, b, m, c int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "gather failed",
			"b", b,
			"num_points", m,
			"channels", c,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "gather completed",
			"b", b,
			"num_points", m,
			"channels", c,
		)
	}
}
