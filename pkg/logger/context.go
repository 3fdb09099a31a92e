package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type contextKey string

const loggerKey contextKey = "hogar-logger"

// EchoLoggerKey is the echo context key under which Middleware stores
// the request logger enriched with the correlation id.
const EchoLoggerKey = "logger"

// FromContext returns the logger bound to the context, or the global
// one when none was bound.
func FromContext(ctx context.Context) *zap.Logger {
	logger, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok {
		return GetLogger()
	}
	return logger
}

// WithContext binds a logger to the context so downstream calls keep
// the same correlation fields.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromEcho returns the correlation-aware request logger set by
// Middleware, or the global one outside a request.
func FromEcho(c echo.Context) *zap.Logger {
	logger, ok := c.Get(EchoLoggerKey).(*zap.Logger)
	if !ok {
		return GetLogger()
	}
	return logger
}
