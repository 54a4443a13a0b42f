// Package logging provides structured logging configuration using log/slog.
//
// Each run stores its run ID in the context so every log entry written
// during the run can be correlated.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

type ctxKey struct{}

// Setup configures the global slog logger based on level and format and
// returns it. Logs go to w; the command passes stderr so stdout carries
// only the run summary.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// WithRunID returns a context carrying the run ID.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, runID)
}

// RunID returns the run ID stored in ctx, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// FromContext returns the default logger, tagged with run_id when the
// context carries one.
//
// Usage:
//
//	logger := logging.FromContext(ctx)
//	logger.Info("input read", "rows", n)
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if id := RunID(ctx); id != "" {
		logger = logger.With("run_id", id)
	}

	return logger
}
