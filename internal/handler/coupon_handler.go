package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/pablodma/homeAssistant-backend/pkg/logger"
	"github.com/pablodma/homeAssistant-backend/prometheus"
)

// ValidateCoupon handles POST /api/coupons/validate. The answer is
// advisory; redemption re-checks under the transaction.
func (h *Handler) ValidateCoupon(c echo.Context) error {
	log := logger.FromEcho(c)

	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	var req struct {
		Code     string `json:"code"`
		PlanType string `json:"plan_type"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse coupon validation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	coupon, err := h.store.ValidateCoupon(tid, req.Code, req.PlanType)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"valid":            true,
		"code":             coupon.Code,
		"discount_percent": coupon.DiscountPercent,
	})
}

// RedeemCoupon handles POST /api/coupons/redeem
func (h *Handler) RedeemCoupon(c echo.Context) error {
	log := logger.FromEcho(c)

	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	var req struct {
		Code     string `json:"code"`
		PlanType string `json:"plan_type"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse coupon redemption request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	pricing, err := h.store.GetPlanPrice(req.PlanType)
	if err != nil {
		return respondError(c, err)
	}

	sub, err := h.store.GetTenantSubscription(tid)
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	redemption, err := h.store.RedeemCoupon(tid, req.Code, req.PlanType, pricing.Price, &sub.ID)
	if err != nil {
		prometheus.RecordCouponRedemption("rejected")
		return respondError(c, err)
	}

	prometheus.RecordCouponRedemption("redeemed")
	log.Info("Coupon redeemed",
		zap.String("code", req.Code),
		zap.String("tenant_id", tid.String()))
	return c.JSON(http.StatusCreated, redemption)
}
