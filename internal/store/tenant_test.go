package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

func TestGetTenantAndSettings(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	got, err := s.GetTenant(tenant)
	require.NoError(t, err)
	assert.Equal(t, "Casa", got.Name)

	require.NoError(t, s.UpdateTenantSettings(tenant, model.TenantSettings{
		Timezone: "America/Argentina/Buenos_Aires",
		Currency: "ARS",
	}))

	got, err = s.GetTenant(tenant)
	require.NoError(t, err)
	assert.Equal(t, "ARS", got.Settings.Currency)

	// An unknown tenant is not found.
	err = s.UpdateTenantSettings(uuid.New(), model.TenantSettings{})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestListTenantMembersSkipsInactive(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")
	active := createTestUser(t, s, tenant, "+5491100000001")
	inactive := createTestUser(t, s, tenant, "+5491100000002")
	require.NoError(t, s.db.Model(&model.User{}).Where("id = ?", inactive).
		Update("active", false).Error)

	members, err := s.ListTenantMembers(tenant)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, active, members[0].ID)
}
