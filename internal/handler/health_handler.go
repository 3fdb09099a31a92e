package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthCheck reports service and database health.
func (h *Handler) HealthCheck(c echo.Context) error {
	sqlDB, err := h.store.DB().DB()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status": "unhealthy",
			"detail": "database handle unavailable",
		})
	}
	if err := sqlDB.Ping(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status": "unhealthy",
			"detail": "database unreachable",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "healthy"})
}
