// Package logging provides structured logging configuration using log/slog.
//
// Interactive operations get an operation-scoped logger carrying a short
// operation id, so every log line produced while one menu action runs can
// be correlated after the fact.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Setup configures the global slog logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
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

type ctxKey struct{}

// NewOperation returns a context carrying a fresh operation id and a logger
// bound to it. Use at the start of each user-triggered operation:
//
//	ctx, logger := logging.NewOperation(ctx, "stage_batch")
//	logger.Info("staging", "batch_id", id)
func NewOperation(ctx context.Context, name string) (context.Context, *slog.Logger) {
	opID := uuid.NewString()[:8]
	logger := slog.Default().With("op", name, "op_id", opID)
	return context.WithValue(ctx, ctxKey{}, logger), logger
}

// FromContext returns the operation logger stored in ctx, or the default
// logger when ctx carries none.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
