package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

func intptr(n int) *int { return &n }

func TestRedeemCouponLastSlotExclusive(t *testing.T) {
	s := newTestStore(t)
	tenantA := createTestTenant(t, s, "Casa A")
	tenantB := createTestTenant(t, s, "Casa B")

	_, err := s.CreateCoupon(CouponInput{
		Code:            "SOLOUNO",
		DiscountPercent: 30,
		MaxRedemptions:  intptr(1),
	})
	require.NoError(t, err)

	price := decimal.NewFromInt(1000)

	_, err = s.RedeemCoupon(tenantA, "SOLOUNO", model.PlanFamily, price, nil)
	require.NoError(t, err)

	// The slot is gone; the second tenant conflicts.
	_, err = s.RedeemCoupon(tenantB, "SOLOUNO", model.PlanFamily, price, nil)
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	var coupon model.Coupon
	require.NoError(t, s.db.Where("code = ?", "SOLOUNO").First(&coupon).Error)
	assert.Equal(t, 1, coupon.CurrentRedemptions)

	redemptions, err := s.ListCouponRedemptions("SOLOUNO")
	require.NoError(t, err)
	assert.Len(t, redemptions, 1)
}

func TestRedeemCouponOncePerTenant(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	_, err := s.CreateCoupon(CouponInput{Code: "REPE", DiscountPercent: 10})
	require.NoError(t, err)

	price := decimal.NewFromInt(100)

	_, err = s.RedeemCoupon(tenant, "REPE", model.PlanFamily, price, nil)
	require.NoError(t, err)

	_, err = s.RedeemCoupon(tenant, "REPE", model.PlanFamily, price, nil)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestRedeemCouponDiscountMath(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	_, err := s.CreateCoupon(CouponInput{Code: "CUARTO", DiscountPercent: 25})
	require.NoError(t, err)

	redemption, err := s.RedeemCoupon(tenant, "CUARTO", model.PlanPremium, decimal.NewFromInt(1999), nil)
	require.NoError(t, err)
	assert.Equal(t, "499.75", redemption.DiscountApplied.String())
	assert.Equal(t, "1499.25", redemption.FinalPrice.String())
}

func TestValidateCouponSpecificReasons(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	_, err := s.CreateCoupon(CouponInput{Code: "APAGADO", DiscountPercent: 10})
	require.NoError(t, err)
	require.NoError(t, s.DeactivateCoupon("APAGADO"))

	_, err = s.CreateCoupon(CouponInput{Code: "FUTURO", DiscountPercent: 10, ValidFrom: future})
	require.NoError(t, err)

	_, err = s.CreateCoupon(CouponInput{Code: "VENCIDO", DiscountPercent: 10, ValidUntil: &past})
	require.NoError(t, err)

	_, err = s.CreateCoupon(CouponInput{
		Code:            "SOLOPREMIUM",
		DiscountPercent: 10,
		ApplicablePlans: []string{model.PlanPremium},
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		code   string
		plan   string
		expect func(error) bool
		reason string
	}{
		{"inactive", "APAGADO", model.PlanFamily, IsConflict, "inactive"},
		{"not yet valid", "FUTURO", model.PlanFamily, IsConflict, "not yet valid"},
		{"expired", "VENCIDO", model.PlanFamily, IsExpired, "expired"},
		{"inapplicable plan", "SOLOPREMIUM", model.PlanFamily, IsConflict, "not applicable"},
		{"unknown code", "NOEXISTE", model.PlanFamily, IsNotFound, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ValidateCoupon(tenant, tt.code, tt.plan)
			require.Error(t, err)
			assert.True(t, tt.expect(err))
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestValidateCouponDoesNotConsume(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	_, err := s.CreateCoupon(CouponInput{Code: "MIRAR", DiscountPercent: 10, MaxRedemptions: intptr(1)})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := s.ValidateCoupon(tenant, "MIRAR", model.PlanFamily)
		require.NoError(t, err)
	}

	var coupon model.Coupon
	require.NoError(t, s.db.Where("code = ?", "MIRAR").First(&coupon).Error)
	assert.Equal(t, 0, coupon.CurrentRedemptions)
}

func TestCreateCouponValidation(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateCoupon(CouponInput{Code: "", DiscountPercent: 10})
	assert.True(t, IsValidation(err))

	_, err = s.CreateCoupon(CouponInput{Code: "MAL", DiscountPercent: 0})
	assert.True(t, IsValidation(err))

	_, err = s.CreateCoupon(CouponInput{Code: "MAL", DiscountPercent: 101})
	assert.True(t, IsValidation(err))

	_, err = s.CreateCoupon(CouponInput{Code: "MAL", DiscountPercent: 10, ApplicablePlans: []string{"gold"}})
	assert.True(t, IsValidation(err))

	// Codes are stored upper-cased and matched case-insensitively.
	_, err = s.CreateCoupon(CouponInput{Code: "minusculas", DiscountPercent: 10})
	require.NoError(t, err)
	tenant := createTestTenant(t, s, "Casa")
	coupon, err := s.ValidateCoupon(tenant, "MINUSCULAS", model.PlanFamily)
	require.NoError(t, err)
	assert.Equal(t, "MINUSCULAS", coupon.Code)
}
