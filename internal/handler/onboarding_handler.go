package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/pablodma/homeAssistant-backend/internal/store"
	"github.com/pablodma/homeAssistant-backend/pkg/logger"
	"github.com/pablodma/homeAssistant-backend/prometheus"
)

// StartRegistration handles POST /api/onboarding/registrations
func (h *Handler) StartRegistration(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Phone       string  `json:"phone"`
		DisplayName string  `json:"display_name"`
		HomeName    string  `json:"home_name"`
		PlanType    string  `json:"plan_type"`
		CouponCode  *string `json:"coupon_code,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	reg, err := h.store.CreatePendingRegistration(store.RegistrationInput{
		Phone:       req.Phone,
		DisplayName: req.DisplayName,
		HomeName:    req.HomeName,
		PlanType:    req.PlanType,
		CouponCode:  req.CouponCode,
	})
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordRegistration("created")
	log.Info("Pending registration created",
		zap.String("registration_id", reg.ID.String()),
		zap.String("plan_type", reg.PlanType))
	return c.JSON(http.StatusCreated, reg)
}

// GetRegistrationByPhone handles GET /api/onboarding/registrations
func (h *Handler) GetRegistrationByPhone(c echo.Context) error {
	phone := c.QueryParam("phone")
	if phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone is required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	reg, err := h.store.GetPendingRegistrationByPhone(phone)
	if err != nil {
		return respondError(c, err)
	}
	if reg == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no pending registration"})
	}
	return c.JSON(http.StatusOK, reg)
}

// AttachCheckout handles PUT /api/onboarding/registrations/:id/checkout
func (h *Handler) AttachCheckout(c echo.Context) error {
	log := logger.FromEcho(c)

	registrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid registration id"})
	}

	var req struct {
		CheckoutID string `json:"checkout_id"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse checkout request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.store.AttachCheckout(registrationID, req.CheckoutID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "attached"})
}

// GetPlanPricing handles GET /api/onboarding/plans/:plan
func (h *Handler) GetPlanPricing(c echo.Context) error {
	defer prometheus.TrackDBOperation("query")(time.Now())
	pricing, err := h.store.GetPlanPrice(c.Param("plan"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, pricing)
}
