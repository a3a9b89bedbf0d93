// Package logger configures the process-wide structured logger and provides
// small helpers for attaching request and worker identity to log records.
package logger

import (
	"context"
	"log/slog"
	"os"
)

type contextKey struct{}

// Setup installs a process-wide slog.Logger at the given level and format
// ("json" or anything else for text).
func Setup(level string, format string) {
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// WithRequestID attaches a request id to ctx for later retrieval by
// FromContext.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

// FromContext returns the default logger, enriched with the request id
// carried in ctx if one was attached via WithRequestID.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if requestID, ok := RequestIDFromContext(ctx); ok {
		logger = logger.With("request_id", requestID)
	}
	return logger
}

// RequestIDFromContext returns the request id attached via WithRequestID,
// if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(contextKey{}).(string)
	return requestID, ok
}

// WithComponent returns the default logger scoped to a named component.
func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

// WithWorker returns the default logger scoped to a worker's stable id.
func WithWorker(workerID string) *slog.Logger {
	return slog.Default().With("component", "worker", "worker_id", workerID)
}

func parseLevel(level string) slog.Level {
	switch level {
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
