package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/pablodma/homeAssistant-backend/internal/middleware"
	"github.com/pablodma/homeAssistant-backend/internal/store"
	"github.com/pablodma/homeAssistant-backend/pkg/logger"
	"github.com/pablodma/homeAssistant-backend/prometheus"
)

// Handler carries the store through echo routes.
type Handler struct {
	store *store.Store
}

// New builds the handler set.
func New(s *store.Store) *Handler {
	return &Handler{store: s}
}

// tenantID extracts the authenticated tenant from the request context.
// Requests authenticated without a tenant (mid-onboarding) get false.
func tenantID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(middleware.TenantIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// userID extracts the authenticated user from the request context.
func userID(c echo.Context) *uuid.UUID {
	if id, ok := c.Get(middleware.UserIDKey).(uuid.UUID); ok && id != uuid.Nil {
		return &id
	}
	return nil
}

// respondError maps the store taxonomy onto HTTP statuses. Transient
// failures answer 202: the operation is parked for retry, not lost.
func respondError(c echo.Context, err error) error {
	log := logger.FromEcho(c)

	switch {
	case store.IsValidation(err):
		prometheus.RecordStoreError("validation")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case store.IsNotFound(err):
		prometheus.RecordStoreError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case store.IsConflict(err):
		prometheus.RecordStoreError("conflict")
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case store.IsExpired(err):
		prometheus.RecordStoreError("expired")
		return c.JSON(http.StatusGone, echo.Map{"error": err.Error()})
	case store.IsTransient(err):
		prometheus.RecordStoreError("transient")
		return c.JSON(http.StatusAccepted, echo.Map{"status": "accepted", "detail": "operation queued for retry"})
	default:
		prometheus.RecordStoreError("fatal")
		log.Error("Unhandled store error", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// noTenant answers 403 for authenticated callers that have not finished
// onboarding and therefore have no tenant yet.
func noTenant(c echo.Context) error {
	return c.JSON(http.StatusForbidden, echo.Map{"error": "no tenant context, complete onboarding first"})
}
