package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

func TestSubscriptionStatusMachine(t *testing.T) {
	s := newTestStore(t)

	sub, err := s.CreateSubscription(model.PlanFamily, strptr("mp_sub_1"))
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionPending, sub.Status)

	sub, err = s.TransitionSubscription(sub.ID, model.SubscriptionAuthorized)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionAuthorized, sub.Status)

	// Re-delivering the same event is a no-op.
	sub, err = s.TransitionSubscription(sub.ID, model.SubscriptionAuthorized)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionAuthorized, sub.Status)

	// Authorized cannot go back to pending.
	_, err = s.TransitionSubscription(sub.ID, model.SubscriptionPending)
	require.Error(t, err)
	assert.True(t, IsValidation(err) || IsConflict(err))

	sub, err = s.TransitionSubscription(sub.ID, model.SubscriptionCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionCancelled, sub.Status)

	// Cancelled is terminal.
	_, err = s.TransitionSubscription(sub.ID, model.SubscriptionAuthorized)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestSubscriptionPauseResume(t *testing.T) {
	s := newTestStore(t)

	sub, err := s.CreateSubscription(model.PlanPremium, nil)
	require.NoError(t, err)

	_, err = s.TransitionSubscription(sub.ID, model.SubscriptionAuthorized)
	require.NoError(t, err)
	_, err = s.TransitionSubscription(sub.ID, model.SubscriptionPaused)
	require.NoError(t, err)
	got, err := s.TransitionSubscription(sub.ID, model.SubscriptionAuthorized)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionAuthorized, got.Status)
}

func TestAttachSubscriptionToTenant(t *testing.T) {
	s := newTestStore(t)
	tenantA := createTestTenant(t, s, "Casa A")
	tenantB := createTestTenant(t, s, "Casa B")

	sub, err := s.CreateSubscription(model.PlanFamily, nil)
	require.NoError(t, err)

	require.NoError(t, s.AttachSubscriptionToTenant(sub.ID, tenantA))

	// Re-attaching to the same tenant is idempotent.
	require.NoError(t, s.AttachSubscriptionToTenant(sub.ID, tenantA))

	// Attaching to a different tenant conflicts.
	err = s.AttachSubscriptionToTenant(sub.ID, tenantB)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestGetSubscriptionByProviderID(t *testing.T) {
	s := newTestStore(t)

	created, err := s.CreateSubscription(model.PlanFamily, strptr("mp_sub_42"))
	require.NoError(t, err)

	got, err := s.GetSubscriptionByProviderID("mp_sub_42")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = s.GetSubscriptionByProviderID("mp_sub_unknown")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestSetCurrentPeriodEnd(t *testing.T) {
	s := newTestStore(t)

	sub, err := s.CreateSubscription(model.PlanFamily, nil)
	require.NoError(t, err)

	end := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Second)
	require.NoError(t, s.SetCurrentPeriodEnd(sub.ID, end))

	var row model.Subscription
	require.NoError(t, s.db.First(&row, "id = ?", sub.ID).Error)
	require.NotNil(t, row.CurrentPeriodEnd)
	assert.WithinDuration(t, end, *row.CurrentPeriodEnd, time.Second)
}
