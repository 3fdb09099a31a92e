package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const CorrelationIDKey = "X-Correlation-ID"

// CorrelationIDMiddleware assigns each request the correlation id that
// ties its audit entries, quality issues and log lines together. An id
// supplied by the caller is kept so upstream systems can trace through.
func CorrelationIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		correlationID := c.Request().Header.Get(CorrelationIDKey)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		c.Set(CorrelationIDKey, correlationID)
		c.Response().Header().Set(CorrelationIDKey, correlationID)
		return next(c)
	}
}

// CorrelationID returns the request's correlation id.
func CorrelationID(c echo.Context) string {
	if id, ok := c.Get(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}
