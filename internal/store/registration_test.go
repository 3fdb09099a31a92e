package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

func pendingInput(phone string) RegistrationInput {
	return RegistrationInput{
		Phone:       phone,
		DisplayName: "Pablo",
		HomeName:    "Casa Pablo",
		PlanType:    model.PlanFamily,
	}
}

func TestCompleteRegistrationPromotesExactlyOnce(t *testing.T) {
	s := newTestStore(t, WithRegistrationTTL(time.Hour))

	reg, err := s.CreatePendingRegistration(pendingInput("+5491100000001"))
	require.NoError(t, err)
	require.NoError(t, s.AttachCheckout(reg.ID, "chk_1"))

	result, err := s.CompleteRegistration("chk_1")
	require.NoError(t, err)
	assert.False(t, result.Replayed)

	tenant, err := s.GetTenant(result.TenantID)
	require.NoError(t, err)
	assert.Equal(t, "Casa Pablo", tenant.Name)
	assert.True(t, tenant.OnboardingCompleted)
	require.NotNil(t, tenant.OwnerUserID)
	assert.Equal(t, result.UserID, *tenant.OwnerUserID)

	identity, err := s.ResolveByPhone("+5491100000001")
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, result.UserID, identity.UserID)
	assert.Equal(t, model.RoleOwner, identity.Role)

	sub, err := s.GetTenantSubscription(result.TenantID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionAuthorized, sub.Status)

	// Webhook redelivery replays the original result, creating nothing.
	again, err := s.CompleteRegistration("chk_1")
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, result.TenantID, again.TenantID)
	assert.Equal(t, result.UserID, again.UserID)
	assert.Equal(t, result.SubscriptionID, again.SubscriptionID)

	var tenantCount int64
	require.NoError(t, s.db.Model(&model.Tenant{}).Count(&tenantCount).Error)
	assert.EqualValues(t, 1, tenantCount)
}

func TestCompleteRegistrationAfterTTL(t *testing.T) {
	s := newTestStore(t, WithRegistrationTTL(10*time.Millisecond))

	reg, err := s.CreatePendingRegistration(pendingInput("+5491100000002"))
	require.NoError(t, err)
	require.NoError(t, s.AttachCheckout(reg.ID, "chk_2"))

	time.Sleep(25 * time.Millisecond)

	_, err = s.CompleteRegistration("chk_2")
	require.Error(t, err)
	assert.True(t, IsExpired(err))

	// The row is terminally expired, not retriable.
	var row model.PendingRegistration
	require.NoError(t, s.db.First(&row, "id = ?", reg.ID).Error)
	assert.Equal(t, model.RegistrationExpired, row.Status)

	_, err = s.CompleteRegistration("chk_2")
	require.Error(t, err)
	assert.True(t, IsExpired(err))
}

func TestCreatePendingRegistrationRejectsRegisteredPhone(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")
	createTestUser(t, s, tenant, "+5491100000003")

	_, err := s.CreatePendingRegistration(pendingInput("+5491100000003"))
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestSweepExpiredRegistrations(t *testing.T) {
	s := newTestStore(t, WithRegistrationTTL(10*time.Millisecond))

	_, err := s.CreatePendingRegistration(pendingInput("+5491100000004"))
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)

	swept, err := s.SweepExpiredRegistrations()
	require.NoError(t, err)
	assert.EqualValues(t, 1, swept)

	// Terminal: a second sweep finds nothing.
	swept, err = s.SweepExpiredRegistrations()
	require.NoError(t, err)
	assert.EqualValues(t, 0, swept)
}

func TestGetPendingRegistrationByPhone(t *testing.T) {
	s := newTestStore(t, WithRegistrationTTL(time.Hour))

	reg, err := s.CreatePendingRegistration(pendingInput("+5491100000005"))
	require.NoError(t, err)

	got, err := s.GetPendingRegistrationByPhone("+5491100000005")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, reg.ID, got.ID)

	none, err := s.GetPendingRegistrationByPhone("+5491199999999")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestCompleteRegistrationWithCoupon(t *testing.T) {
	s := newTestStore(t, WithRegistrationTTL(time.Hour))

	seedPlanPricing(t, s, model.PlanFamily, 1000)
	_, err := s.CreateCoupon(CouponInput{Code: "LAUNCH50", DiscountPercent: 50})
	require.NoError(t, err)

	in := pendingInput("+5491100000006")
	in.CouponCode = strptr("LAUNCH50")
	reg, err := s.CreatePendingRegistration(in)
	require.NoError(t, err)
	require.NoError(t, s.AttachCheckout(reg.ID, "chk_6"))

	result, err := s.CompleteRegistration("chk_6")
	require.NoError(t, err)

	redemptions, err := s.ListCouponRedemptions("LAUNCH50")
	require.NoError(t, err)
	require.Len(t, redemptions, 1)
	assert.Equal(t, result.TenantID, redemptions[0].TenantID)
	assert.Equal(t, "500", redemptions[0].FinalPrice.String())
}
