package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/pablodma/homeAssistant-backend/pkg/jwtutil"
	"github.com/pablodma/homeAssistant-backend/pkg/logger"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey   = "user_id"
	TenantIDKey = "tenant_id"
	RoleKey     = "user_role"
	EmailKey    = "email"
	PhoneKey    = "phone"
)

// AuthMiddleware validates the JWT token from the Authorization header
// and stores the caller's identity in the request context. Callers
// without a tenant (OAuth users mid-onboarding) pass validation but get
// no tenant_id; handlers needing one reject them separately.
func AuthMiddleware(jwt *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Error("Missing Authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Error("Invalid Authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			claims, err := jwt.ValidateToken(parts[1])
			if err != nil {
				log.Error("Invalid JWT token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			c.Set(UserIDKey, claims.UserID)
			c.Set(EmailKey, claims.Email)
			c.Set(PhoneKey, claims.Phone)
			c.Set(RoleKey, claims.Role)

			if claims.TenantID != nil {
				c.Set(TenantIDKey, *claims.TenantID)
				c.Request().Header.Set("X-Tenant-ID", claims.TenantID.String())
				if claims.Role != "" {
					c.Request().Header.Set("X-User-Role", claims.Role)
				}

				log.Debug("Request authenticated with tenant context",
					zap.String("tenant_id", claims.TenantID.String()),
					zap.String("role", claims.Role))
			}

			return next(c)
		}
	}
}
