package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/pablodma/homeAssistant-backend/pkg/logger"
)

// AdminKeyHeader carries the operator credential for admin routes.
const AdminKeyHeader = "X-Admin-Key"

// AdminKeyMiddleware guards operator endpoints with a shared key. The
// configuration holds only the bcrypt hash of the key; the comparison is
// constant-time. An empty hash disables the admin surface entirely.
func AdminKeyMiddleware(keyHash string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			if keyHash == "" {
				log.Warn("Admin surface disabled: no admin key hash configured")
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "admin surface disabled"})
			}

			provided := c.Request().Header.Get(AdminKeyHeader)
			if provided == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing admin key"})
			}

			if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(provided)); err != nil {
				log.Error("Admin key rejected")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid admin key"})
			}

			return next(c)
		}
	}
}
