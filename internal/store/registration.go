package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

// RegistrationInput is the payload captured by the onboarding
// conversation before payment confirms.
type RegistrationInput struct {
	Phone       string
	DisplayName string
	HomeName    string
	PlanType    string
	CouponCode  *string
	CheckoutID  *string
}

// PromotionResult is what a completed registration produced. Returned
// again, unchanged, for redelivered confirmation events.
type PromotionResult struct {
	TenantID       uuid.UUID
	UserID         uuid.UUID
	SubscriptionID uuid.UUID
	Replayed       bool
}

// CreatePendingRegistration opens a provisional signup with a TTL.
// A phone already resolving to an active user conflicts: the person is
// registered already.
func (s *Store) CreatePendingRegistration(in RegistrationInput) (*model.PendingRegistration, error) {
	const op = "store.CreatePendingRegistration"

	if in.Phone == "" {
		return nil, &ValidationError{Field: "phone", Reason: "must not be empty"}
	}
	if in.DisplayName == "" {
		return nil, &ValidationError{Field: "display_name", Reason: "must not be empty"}
	}
	if in.HomeName == "" {
		return nil, &ValidationError{Field: "home_name", Reason: "must not be empty"}
	}
	switch in.PlanType {
	case model.PlanFamily, model.PlanPremium:
	default:
		return nil, &ValidationError{Field: "plan_type", Reason: "unknown plan"}
	}

	var row model.PendingRegistration
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.User{}).
			Where("phone = ? AND active = ?", in.Phone, true).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return &ConflictError{Entity: "registration", Reason: "phone already registered"}
		}

		row = model.PendingRegistration{
			Phone:       in.Phone,
			DisplayName: in.DisplayName,
			HomeName:    in.HomeName,
			PlanType:    in.PlanType,
			CouponCode:  in.CouponCode,
			CheckoutID:  in.CheckoutID,
			Status:      model.RegistrationPending,
			ExpiresAt:   time.Now().Add(s.regTTL),
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, translate(op, "registration", err)
	}
	return &row, nil
}

// GetPendingRegistrationByPhone returns the latest live pending
// registration for a phone, or nil.
func (s *Store) GetPendingRegistrationByPhone(phone string) (*model.PendingRegistration, error) {
	const op = "store.GetPendingRegistrationByPhone"

	var row model.PendingRegistration
	err := s.db.Where("phone = ? AND status = ? AND expires_at > ?", phone, model.RegistrationPending, time.Now()).
		Order("created_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(op, "registration", err)
	}
	return &row, nil
}

// AttachCheckout binds the payment-provider checkout id once the
// checkout session is created.
func (s *Store) AttachCheckout(registrationID uuid.UUID, checkoutID string) error {
	const op = "store.AttachCheckout"

	if checkoutID == "" {
		return &ValidationError{Field: "checkout_id", Reason: "must not be empty"}
	}

	res := s.db.Model(&model.PendingRegistration{}).
		Where("id = ? AND status = ?", registrationID, model.RegistrationPending).
		Update("checkout_id", checkoutID)
	if res.Error != nil {
		return translate(op, "registration", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "registration"}
	}
	return nil
}

// CompleteRegistration promotes a pending registration into a Tenant,
// owner User and Subscription, exactly once. It is driven by the payment
// confirmation event and is idempotent against webhook redelivery: a
// registration that already completed returns the original promotion
// result. A registration past its TTL reports expired and is marked so.
func (s *Store) CompleteRegistration(checkoutID string) (*PromotionResult, error) {
	const op = "store.CompleteRegistration"

	if checkoutID == "" {
		return nil, &ValidationError{Field: "checkout_id", Reason: "must not be empty"}
	}

	var result PromotionResult
	var expiredID uuid.UUID
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var reg model.PendingRegistration
		if err := tx.Where("checkout_id = ?", checkoutID).First(&reg).Error; err != nil {
			return err
		}

		// Guarded transition: only one caller wins the pending row.
		won := tx.Model(&model.PendingRegistration{}).
			Where("id = ? AND status = ? AND expires_at > ?", reg.ID, model.RegistrationPending, time.Now()).
			Update("status", model.RegistrationCompleted)
		if won.Error != nil {
			return won.Error
		}
		if won.RowsAffected == 0 {
			if err := tx.First(&reg, "id = ?", reg.ID).Error; err != nil {
				return err
			}
			if reg.Status == model.RegistrationCompleted && reg.TenantID != nil && reg.UserID != nil {
				var sub model.Subscription
				if err := tx.Where("tenant_id = ?", *reg.TenantID).Order("created_at").First(&sub).Error; err != nil {
					return err
				}
				result = PromotionResult{TenantID: *reg.TenantID, UserID: *reg.UserID, SubscriptionID: sub.ID, Replayed: true}
				return nil
			}
			// TTL elapsed without completion. The terminal marking happens
			// after the transaction: returning the error from here would
			// roll it back.
			expiredID = reg.ID
			return &ExpiredError{Entity: "registration"}
		}

		tenant := model.Tenant{
			Name:                reg.HomeName,
			Active:              true,
			PlanType:            reg.PlanType,
			OnboardingCompleted: true,
		}
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}

		phone := reg.Phone
		user := model.User{
			TenantID:      &tenant.ID,
			Phone:         &phone,
			DisplayName:   reg.DisplayName,
			Role:          model.RoleOwner,
			AuthProvider:  model.AuthProviderPhone,
			PhoneVerified: true,
			Active:        true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Tenant{}).Where("id = ?", tenant.ID).
			Update("owner_user_id", user.ID).Error; err != nil {
			return err
		}

		sub := model.Subscription{
			TenantID: &tenant.ID,
			PlanType: reg.PlanType,
			Status:   model.SubscriptionAuthorized,
		}
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}

		if reg.CouponCode != nil {
			pricing, err := planPriceTx(tx, reg.PlanType)
			if err == nil {
				// Redemption failure does not undo a confirmed payment;
				// the discount was applied at checkout time.
				_, redeemErr := redeemCouponTx(tx, tenant.ID, *reg.CouponCode, reg.PlanType, pricing.Price, &sub.ID)
				if redeemErr != nil && IsFatal(redeemErr) {
					return redeemErr
				}
			} else if IsFatal(err) {
				return err
			}
		}

		if err := tx.Model(&model.PendingRegistration{}).Where("id = ?", reg.ID).
			Updates(map[string]interface{}{"tenant_id": tenant.ID, "user_id": user.ID}).Error; err != nil {
			return err
		}

		result = PromotionResult{TenantID: tenant.ID, UserID: user.ID, SubscriptionID: sub.ID}
		return nil
	})
	if err != nil {
		if IsExpired(err) && expiredID != uuid.Nil {
			// Expired is terminal; the marking commits on its own.
			res := s.db.Model(&model.PendingRegistration{}).
				Where("id = ? AND status = ?", expiredID, model.RegistrationPending).
				Update("status", model.RegistrationExpired)
			if res.Error != nil {
				return nil, translate(op, "registration", res.Error)
			}
		}
		return nil, translate(op, "registration", err)
	}
	return &result, nil
}

// SweepExpiredRegistrations marks overdue pending registrations expired.
// Expired is terminal: swept rows never transition again.
func (s *Store) SweepExpiredRegistrations() (int64, error) {
	const op = "store.SweepExpiredRegistrations"

	res := s.db.Model(&model.PendingRegistration{}).
		Where("status = ? AND expires_at <= ?", model.RegistrationPending, time.Now()).
		Update("status", model.RegistrationExpired)
	if res.Error != nil {
		return 0, translate(op, "registration", res.Error)
	}
	return res.RowsAffected, nil
}
