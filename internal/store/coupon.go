package store

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

// CouponInput is the payload for creating a discount code.
type CouponInput struct {
	Code            string
	Description     string
	DiscountPercent int
	ApplicablePlans []string
	ValidFrom       time.Time
	ValidUntil      *time.Time
	MaxRedemptions  *int
	CreatedBy       *uuid.UUID
}

// CreateCoupon registers a platform-wide discount code. Codes are
// case-insensitive and stored upper-cased.
func (s *Store) CreateCoupon(in CouponInput) (*model.Coupon, error) {
	const op = "store.CreateCoupon"

	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return nil, &ValidationError{Field: "code", Reason: "must not be empty"}
	}
	if in.DiscountPercent < 1 || in.DiscountPercent > 100 {
		return nil, &ValidationError{Field: "discount_percent", Reason: "must be between 1 and 100"}
	}
	if in.MaxRedemptions != nil && *in.MaxRedemptions < 1 {
		return nil, &ValidationError{Field: "max_redemptions", Reason: "must be positive"}
	}
	for _, plan := range in.ApplicablePlans {
		switch plan {
		case model.PlanFamily, model.PlanPremium:
		default:
			return nil, &ValidationError{Field: "applicable_plans", Reason: "unknown plan " + plan}
		}
	}

	coupon := model.Coupon{
		Code:            code,
		Description:     in.Description,
		DiscountPercent: in.DiscountPercent,
		ApplicablePlans: model.StringList(in.ApplicablePlans),
		ValidFrom:       in.ValidFrom,
		ValidUntil:      in.ValidUntil,
		MaxRedemptions:  in.MaxRedemptions,
		Active:          true,
		CreatedBy:       in.CreatedBy,
	}
	if err := s.db.Create(&coupon).Error; err != nil {
		return nil, translate(op, "coupon", err)
	}
	return &coupon, nil
}

// DeactivateCoupon withdraws a code. Existing redemptions stand.
func (s *Store) DeactivateCoupon(code string) error {
	const op = "store.DeactivateCoupon"

	res := s.db.Model(&model.Coupon{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Update("active", false)
	if res.Error != nil {
		return translate(op, "coupon", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "coupon"}
	}
	return nil
}

// validateCouponTx checks every redemption precondition except the
// capacity increment. Each rejection names its specific reason.
func validateCouponTx(tx *gorm.DB, coupon *model.Coupon, tenantID uuid.UUID, planType string) error {
	now := time.Now()
	switch {
	case !coupon.Active:
		return &ConflictError{Entity: "coupon", Reason: "inactive"}
	case coupon.ValidFrom.After(now):
		return &ConflictError{Entity: "coupon", Reason: "not yet valid"}
	case coupon.ValidUntil != nil && coupon.ValidUntil.Before(now):
		return &ExpiredError{Entity: "coupon"}
	case len(coupon.ApplicablePlans) > 0 && !coupon.ApplicablePlans.Contains(planType):
		return &ConflictError{Entity: "coupon", Reason: "not applicable to plan " + planType}
	case coupon.MaxRedemptions != nil && coupon.CurrentRedemptions >= *coupon.MaxRedemptions:
		return &ConflictError{Entity: "coupon", Reason: "fully redeemed"}
	}

	var n int64
	if err := tx.Model(&model.CouponRedemption{}).
		Where("coupon_id = ? AND tenant_id = ?", coupon.ID, tenantID).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return &ConflictError{Entity: "coupon", Reason: "already redeemed by this tenant"}
	}
	return nil
}

// ValidateCoupon checks whether a code could be redeemed right now for a
// plan, without consuming capacity. The answer is advisory: only
// RedeemCoupon decides.
func (s *Store) ValidateCoupon(tenantID uuid.UUID, code, planType string) (*model.Coupon, error) {
	const op = "store.ValidateCoupon"

	if tenantID == uuid.Nil {
		return nil, &FatalError{Op: op, Err: errNoTenantScope}
	}

	var coupon model.Coupon
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
			First(&coupon).Error; err != nil {
			return err
		}
		return validateCouponTx(tx, &coupon, tenantID, planType)
	})
	if err != nil {
		return nil, translate(op, "coupon", err)
	}
	return &coupon, nil
}

// redeemCouponTx performs the atomic redemption inside an open
// transaction: validate, then a guarded increment that is the single
// point deciding who gets the last slot, then the redemption row.
func redeemCouponTx(tx *gorm.DB, tenantID uuid.UUID, code, planType string, originalPrice decimal.Decimal, subscriptionID *uuid.UUID) (*model.CouponRedemption, error) {
	var coupon model.Coupon
	err := tx.Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "coupon"}
	}
	if err != nil {
		return nil, &FatalError{Op: "store.redeemCoupon", Err: err}
	}
	if err := validateCouponTx(tx, &coupon, tenantID, planType); err != nil {
		return nil, err
	}

	// The capacity check and the increment are one statement; losers of
	// the race see zero rows updated.
	res := tx.Model(&model.Coupon{}).
		Where("id = ? AND (max_redemptions IS NULL OR current_redemptions < max_redemptions)", coupon.ID).
		Update("current_redemptions", gorm.Expr("current_redemptions + 1"))
	if res.Error != nil {
		return nil, &FatalError{Op: "store.redeemCoupon", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return nil, &ConflictError{Entity: "coupon", Reason: "fully redeemed"}
	}

	discount := originalPrice.Mul(decimal.NewFromInt(int64(coupon.DiscountPercent))).Div(decimal.NewFromInt(100)).Round(2)
	redemption := model.CouponRedemption{
		CouponID:        coupon.ID,
		TenantID:        tenantID,
		SubscriptionID:  subscriptionID,
		OriginalPrice:   originalPrice,
		DiscountApplied: discount,
		FinalPrice:      originalPrice.Sub(discount),
	}
	if err := tx.Create(&redemption).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Entity: "coupon", Reason: "already redeemed by this tenant"}
		}
		return nil, &FatalError{Op: "store.redeemCoupon", Err: err}
	}
	return &redemption, nil
}

// RedeemCoupon consumes one redemption slot for a tenant, atomically.
// Either the increment and the redemption row both commit or neither
// does; a sold-out or repeated redemption conflicts.
func (s *Store) RedeemCoupon(tenantID uuid.UUID, code, planType string, originalPrice decimal.Decimal, subscriptionID *uuid.UUID) (*model.CouponRedemption, error) {
	const op = "store.RedeemCoupon"

	if tenantID == uuid.Nil {
		return nil, &FatalError{Op: op, Err: errNoTenantScope}
	}
	if originalPrice.IsNegative() {
		return nil, &ValidationError{Field: "original_price", Reason: "must not be negative"}
	}

	var redemption *model.CouponRedemption
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		redemption, err = redeemCouponTx(tx, tenantID, code, planType, originalPrice, subscriptionID)
		return err
	})
	if err != nil {
		return nil, translate(op, "coupon", err)
	}
	return redemption, nil
}

// ListCouponRedemptions returns a coupon's redemption history.
func (s *Store) ListCouponRedemptions(code string) ([]model.CouponRedemption, error) {
	const op = "store.ListCouponRedemptions"

	var coupon model.Coupon
	if err := s.db.Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&coupon).Error; err != nil {
		return nil, translate(op, "coupon", err)
	}

	var redemptions []model.CouponRedemption
	if err := s.db.Where("coupon_id = ?", coupon.ID).
		Order("redeemed_at").Find(&redemptions).Error; err != nil {
		return nil, translate(op, "coupon redemption", err)
	}
	return redemptions, nil
}
