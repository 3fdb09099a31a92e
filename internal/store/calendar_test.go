package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

func TestCreateEventIdempotencyKey(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	in := EventInput{
		Title:          "Turno pediatra",
		StartsAt:       time.Now().Add(24 * time.Hour),
		IdempotencyKey: strptr("k1"),
	}

	first, replayed, err := s.CreateEvent(tenant, in)
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := s.CreateEvent(tenant, in)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, s.db.Set(TenantScopeSetting, tenant).
		Model(&model.Event{}).Where("tenant_id = ?", tenant).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateEventSameKeyDifferentTenants(t *testing.T) {
	s := newTestStore(t)
	tenantA := createTestTenant(t, s, "Casa A")
	tenantB := createTestTenant(t, s, "Casa B")

	in := EventInput{
		Title:          "Cumple",
		StartsAt:       time.Now().Add(48 * time.Hour),
		IdempotencyKey: strptr("k1"),
	}

	a, replayed, err := s.CreateEvent(tenantA, in)
	require.NoError(t, err)
	assert.False(t, replayed)

	// The key is scoped to the tenant, not global.
	b, replayed, err := s.CreateEvent(tenantB, in)
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCreateEventValidation(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	_, _, err := s.CreateEvent(tenant, EventInput{StartsAt: time.Now()})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, _, err = s.CreateEvent(tenant, EventInput{Title: "Sin fecha"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	starts := time.Now().Add(2 * time.Hour)
	before := starts.Add(-time.Hour)
	_, _, err = s.CreateEvent(tenant, EventInput{Title: "Al reves", StartsAt: starts, EndsAt: &before})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestListEventsDoesNotLeakAcrossTenants(t *testing.T) {
	s := newTestStore(t)
	tenantA := createTestTenant(t, s, "Casa A")
	tenantB := createTestTenant(t, s, "Casa B")

	_, _, err := s.CreateEvent(tenantA, EventInput{Title: "Asado", StartsAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	mine, err := s.ListEvents(tenantA, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := s.ListEvents(tenantB, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestListEventsWindow(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	base := time.Now()
	_, _, err := s.CreateEvent(tenant, EventInput{Title: "Hoy", StartsAt: base.Add(time.Hour)})
	require.NoError(t, err)
	_, _, err = s.CreateEvent(tenant, EventInput{Title: "Semana que viene", StartsAt: base.Add(8 * 24 * time.Hour)})
	require.NoError(t, err)

	// [from, to) keeps the near event and drops the far one.
	events, err := s.ListEvents(tenant, base, base.Add(7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Hoy", events[0].Title)
}

func TestCreateReminderIdempotencyKey(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	in := ReminderInput{
		Title:          "Pagar expensas",
		DueAt:          time.Now().Add(72 * time.Hour),
		IdempotencyKey: strptr("k1"),
	}

	first, replayed, err := s.CreateReminder(tenant, in)
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := s.CreateReminder(tenant, in)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, s.db.Set(TenantScopeSetting, tenant).
		Model(&model.Reminder{}).Where("tenant_id = ?", tenant).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCompleteReminderCrossTenant(t *testing.T) {
	s := newTestStore(t)
	tenantA := createTestTenant(t, s, "Casa A")
	tenantB := createTestTenant(t, s, "Casa B")

	reminder, _, err := s.CreateReminder(tenantA, ReminderInput{
		Title: "Sacar turno",
		DueAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	// Another tenant's reminder is indistinguishable from a missing one.
	err = s.CompleteReminder(tenantB, reminder.ID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	require.NoError(t, s.CompleteReminder(tenantA, reminder.ID))

	pending, err := s.ListReminders(tenantA, false)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
