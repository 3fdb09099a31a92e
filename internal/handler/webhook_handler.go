package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/pablodma/homeAssistant-backend/internal/model"
	"github.com/pablodma/homeAssistant-backend/internal/store"
	"github.com/pablodma/homeAssistant-backend/pkg/logger"
	"github.com/pablodma/homeAssistant-backend/prometheus"
)

// PaymentWebhook handles POST /api/webhooks/payment. The billing
// provider redelivers events until it sees 2xx, so every branch is
// idempotent: completed registrations replay their original result and
// repeated subscription transitions are no-ops.
func (h *Handler) PaymentWebhook(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		EventType      string     `json:"event_type"`
		CheckoutID     string     `json:"checkout_id,omitempty"`
		SubscriptionID string     `json:"subscription_id,omitempty"`
		PeriodEnd      *time.Time `json:"period_end,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse webhook payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}

	switch req.EventType {
	case "checkout.completed":
		return h.handleCheckoutCompleted(c, req.CheckoutID)
	case "subscription.authorized":
		return h.handleSubscriptionEvent(c, req.SubscriptionID, model.SubscriptionAuthorized, req.PeriodEnd)
	case "subscription.paused":
		return h.handleSubscriptionEvent(c, req.SubscriptionID, model.SubscriptionPaused, nil)
	case "subscription.cancelled":
		return h.handleSubscriptionEvent(c, req.SubscriptionID, model.SubscriptionCancelled, nil)
	case "subscription.ended":
		return h.handleSubscriptionEvent(c, req.SubscriptionID, model.SubscriptionEnded, nil)
	default:
		log.Warn("Unknown webhook event type", zap.String("event_type", req.EventType))
		return c.JSON(http.StatusOK, echo.Map{"status": "ignored"})
	}
}

func (h *Handler) handleCheckoutCompleted(c echo.Context, checkoutID string) error {
	log := logger.FromEcho(c)

	defer prometheus.TrackDBOperation("update")(time.Now())
	result, err := h.store.CompleteRegistration(checkoutID)
	if err != nil {
		if store.IsExpired(err) {
			prometheus.RecordRegistration("expired")
			log.Warn("Checkout completed after registration TTL",
				zap.String("checkout_id", checkoutID))
		}
		return respondError(c, err)
	}

	if result.Replayed {
		prometheus.RecordRegistration("replayed")
		log.Info("Webhook redelivery replayed promotion result",
			zap.String("checkout_id", checkoutID),
			zap.String("tenant_id", result.TenantID.String()))
		return c.JSON(http.StatusOK, result)
	}

	prometheus.RecordRegistration("completed")
	log.Info("Registration promoted",
		zap.String("checkout_id", checkoutID),
		zap.String("tenant_id", result.TenantID.String()),
		zap.String("user_id", result.UserID.String()))
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) handleSubscriptionEvent(c echo.Context, providerSubID, target string, periodEnd *time.Time) error {
	log := logger.FromEcho(c)

	defer prometheus.TrackDBOperation("update")(time.Now())
	sub, err := h.store.GetSubscriptionByProviderID(providerSubID)
	if err != nil {
		return respondError(c, err)
	}

	if _, err := h.store.TransitionSubscription(sub.ID, target); err != nil {
		return respondError(c, err)
	}
	if periodEnd != nil {
		if err := h.store.SetCurrentPeriodEnd(sub.ID, *periodEnd); err != nil {
			return respondError(c, err)
		}
	}

	log.Info("Subscription transitioned",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("status", target))
	return c.JSON(http.StatusOK, echo.Map{"status": target})
}
