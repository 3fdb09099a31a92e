package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

// subscriptionTransitions is the allowed status machine. Terminal states
// have no outgoing edges.
var subscriptionTransitions = map[string][]string{
	model.SubscriptionPending:    {model.SubscriptionAuthorized, model.SubscriptionCancelled},
	model.SubscriptionAuthorized: {model.SubscriptionPaused, model.SubscriptionCancelled, model.SubscriptionEnded},
	model.SubscriptionPaused:     {model.SubscriptionAuthorized, model.SubscriptionCancelled, model.SubscriptionEnded},
	model.SubscriptionCancelled:  {},
	model.SubscriptionEnded:      {},
}

func transitionAllowed(from, to string) bool {
	for _, s := range subscriptionTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CreateSubscription opens a pending subscription during onboarding,
// before the tenant exists.
func (s *Store) CreateSubscription(planType string, providerSubID *string) (*model.Subscription, error) {
	const op = "store.CreateSubscription"

	switch planType {
	case model.PlanFamily, model.PlanPremium:
	default:
		return nil, &ValidationError{Field: "plan_type", Reason: "unknown plan"}
	}

	sub := model.Subscription{
		PlanType:      planType,
		Status:        model.SubscriptionPending,
		ProviderSubID: providerSubID,
	}
	if err := s.db.Create(&sub).Error; err != nil {
		return nil, translate(op, "subscription", err)
	}
	return &sub, nil
}

// AttachSubscriptionToTenant binds an onboarding-time subscription to the
// tenant created on promotion.
func (s *Store) AttachSubscriptionToTenant(subscriptionID, tenantID uuid.UUID) error {
	const op = "store.AttachSubscriptionToTenant"

	if tenantID == uuid.Nil {
		return &FatalError{Op: op, Err: errNoTenantScope}
	}

	res := s.db.Model(&model.Subscription{}).
		Where("id = ? AND tenant_id IS NULL", subscriptionID).
		Update("tenant_id", tenantID)
	if res.Error != nil {
		return translate(op, "subscription", res.Error)
	}
	if res.RowsAffected == 0 {
		var sub model.Subscription
		if err := s.db.First(&sub, "id = ?", subscriptionID).Error; err != nil {
			return translate(op, "subscription", err)
		}
		if sub.TenantID != nil && *sub.TenantID == tenantID {
			return nil
		}
		return &ConflictError{Entity: "subscription", Reason: "already attached to a tenant"}
	}
	return nil
}

// TransitionSubscription moves a subscription through the status machine.
// Re-asserting the current status is a no-op, which keeps provider event
// redelivery harmless. A transition the machine does not allow conflicts.
func (s *Store) TransitionSubscription(subscriptionID uuid.UUID, target string) (*model.Subscription, error) {
	const op = "store.TransitionSubscription"

	if _, ok := subscriptionTransitions[target]; !ok {
		return nil, &ValidationError{Field: "status", Reason: "unknown status"}
	}

	var sub model.Subscription
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sub, "id = ?", subscriptionID).Error; err != nil {
			return err
		}
		if sub.Status == target {
			return nil
		}
		if !transitionAllowed(sub.Status, target) {
			return &ConflictError{
				Entity: "subscription",
				Reason: fmt.Sprintf("cannot move from %s to %s", sub.Status, target),
			}
		}

		res := tx.Model(&model.Subscription{}).
			Where("id = ? AND status = ?", subscriptionID, sub.Status).
			Update("status", target)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &ConflictError{Entity: "subscription", Reason: "concurrent status change"}
		}
		sub.Status = target
		return nil
	})
	if err != nil {
		return nil, translate(op, "subscription", err)
	}
	return &sub, nil
}

// GetSubscriptionByProviderID resolves an inbound billing-provider event
// to the local subscription.
func (s *Store) GetSubscriptionByProviderID(providerSubID string) (*model.Subscription, error) {
	const op = "store.GetSubscriptionByProviderID"

	if providerSubID == "" {
		return nil, &ValidationError{Field: "provider_subscription_id", Reason: "must not be empty"}
	}

	var sub model.Subscription
	err := s.db.Where("provider_subscription_id = ?", providerSubID).First(&sub).Error
	if err != nil {
		return nil, translate(op, "subscription", err)
	}
	return &sub, nil
}

// GetTenantSubscription returns the tenant's subscription.
func (s *Store) GetTenantSubscription(tenantID uuid.UUID) (*model.Subscription, error) {
	const op = "store.GetTenantSubscription"

	if tenantID == uuid.Nil {
		return nil, &FatalError{Op: op, Err: errNoTenantScope}
	}

	var sub model.Subscription
	err := s.db.Where("tenant_id = ?", tenantID).Order("created_at").First(&sub).Error
	if err != nil {
		return nil, translate(op, "subscription", err)
	}
	return &sub, nil
}

// SetCurrentPeriodEnd records the paid-through timestamp from a provider
// billing event.
func (s *Store) SetCurrentPeriodEnd(subscriptionID uuid.UUID, periodEnd time.Time) error {
	const op = "store.SetCurrentPeriodEnd"

	res := s.db.Model(&model.Subscription{}).
		Where("id = ?", subscriptionID).
		Update("current_period_end", periodEnd)
	if res.Error != nil {
		return translate(op, "subscription", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "subscription"}
	}
	return nil
}

// GetPlanPrice returns the active price for a plan.
func (s *Store) GetPlanPrice(planType string) (*model.PlanPricing, error) {
	const op = "store.GetPlanPrice"

	var pricing model.PlanPricing
	err := s.db.Where("plan_type = ? AND active = ?", planType, true).
		Order("created_at DESC").First(&pricing).Error
	if err != nil {
		return nil, translate(op, "plan pricing", err)
	}
	return &pricing, nil
}

// planPriceTx is GetPlanPrice inside an open transaction.
func planPriceTx(tx *gorm.DB, planType string) (*model.PlanPricing, error) {
	var pricing model.PlanPricing
	err := tx.Where("plan_type = ? AND active = ?", planType, true).
		Order("created_at DESC").First(&pricing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "plan pricing"}
	}
	if err != nil {
		return nil, &FatalError{Op: "store.planPrice", Err: err}
	}
	return &pricing, nil
}
