package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// ContextWithTraceID stores a fresh UUID v4 trace id in ctx
func ContextWithTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, uuid.NewString())
}

// EnsureTraceID returns ctx unchanged when it already carries a trace id.
// Background work (scheduled probes, CLI runs) has no request id to inherit.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return ContextWithTraceID(ctx)
}

// WithComponent scopes a logger to a component
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}

// WithSymbol scopes a logger to one ticker symbol
func WithSymbol(logger *slog.Logger, symbol string) *slog.Logger {
	if symbol == "" {
		return logger
	}
	return logger.With(slog.String("symbol", symbol))
}

// WithError adds an error field; a nil error returns logger as is
func WithError(logger *slog.Logger, err error) *slog.Logger {
	if err == nil {
		return logger
	}
	return logger.With(slog.String("error", err.Error()))
}
