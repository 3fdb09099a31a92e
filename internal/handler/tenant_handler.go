package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/pablodma/homeAssistant-backend/internal/model"
	"github.com/pablodma/homeAssistant-backend/pkg/logger"
	"github.com/pablodma/homeAssistant-backend/prometheus"
)

// GetTenant handles GET /api/tenant
func (h *Handler) GetTenant(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	tenant, err := h.store.GetTenant(tid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// UpdateTenantSettings handles PUT /api/tenant/settings
func (h *Handler) UpdateTenantSettings(c echo.Context) error {
	log := logger.FromEcho(c)

	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	var req struct {
		Timezone string `json:"timezone"`
		Locale   string `json:"locale"`
		Currency string `json:"currency"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse settings request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	settings := model.TenantSettings{
		Timezone: req.Timezone,
		Locale:   req.Locale,
		Currency: req.Currency,
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.store.UpdateTenantSettings(tid, settings); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "updated"})
}

// ListTenantMembers handles GET /api/tenant/members
func (h *Handler) ListTenantMembers(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	members, err := h.store.ListTenantMembers(tid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, members)
}

// SetMemberRole handles PUT /api/tenant/members/:id/role
func (h *Handler) SetMemberRole(c echo.Context) error {
	log := logger.FromEcho(c)

	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	actor := userID(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing user identity"})
	}

	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse role request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.store.SetUserRole(tid, *actor, memberID, req.Role); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "updated"})
}
