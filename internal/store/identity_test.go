package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

func TestResolveByPhone(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")
	userID := createTestUser(t, s, tenant, "+5491111111111")

	identity, err := s.ResolveByPhone("+5491111111111")
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, userID, identity.UserID)
	require.NotNil(t, identity.TenantID)
	assert.Equal(t, tenant, *identity.TenantID)

	// An unknown phone is not an error, just absent.
	identity, err = s.ResolveByPhone("+5491122222222")
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestResolveByOAuthCreatesOnce(t *testing.T) {
	s := newTestStore(t)

	first, err := s.ResolveByOAuth("Pablo@Gmail.com", model.AuthProviderGoogle)
	require.NoError(t, err)
	assert.True(t, first.IsNew)
	assert.Nil(t, first.TenantID)

	// Email matching is case-insensitive; the second login resolves the
	// same user.
	second, err := s.ResolveByOAuth("pablo@gmail.com", model.AuthProviderGoogle)
	require.NoError(t, err)
	assert.False(t, second.IsNew)
	assert.Equal(t, first.UserID, second.UserID)

	var count int64
	require.NoError(t, s.db.Model(&model.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestLinkPhoneToUser(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")
	holder := createTestUser(t, s, tenant, "+5491133333333")

	oauth, err := s.ResolveByOAuth("nuevo@gmail.com", model.AuthProviderGoogle)
	require.NoError(t, err)

	// A phone held by another active user cannot be linked.
	err = s.LinkPhoneToUser(oauth.UserID, "+5491133333333")
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	// Linking a free phone works, and repeating it is idempotent.
	require.NoError(t, s.LinkPhoneToUser(oauth.UserID, "+5491144444444"))
	require.NoError(t, s.LinkPhoneToUser(oauth.UserID, "+5491144444444"))

	identity, err := s.ResolveByPhone("+5491144444444")
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, oauth.UserID, identity.UserID)

	// The original holder keeps their phone.
	held, err := s.ResolveByPhone("+5491133333333")
	require.NoError(t, err)
	require.NotNil(t, held)
	assert.Equal(t, holder, held.UserID)
}

func TestMergeUsers(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	canonical, err := s.ResolveByOAuth("dup@gmail.com", model.AuthProviderGoogle)
	require.NoError(t, err)
	duplicateID := createTestUser(t, s, tenant, "+5491155555555")

	require.NoError(t, s.MergeUsers(canonical.UserID, duplicateID))

	// The phone moved to the canonical user.
	identity, err := s.ResolveByPhone("+5491155555555")
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, canonical.UserID, identity.UserID)

	// The duplicate is deactivated, never deleted.
	var dup model.User
	require.NoError(t, s.db.First(&dup, "id = ?", duplicateID).Error)
	assert.False(t, dup.Active)
}

func TestSetUserRole(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")
	owner := createTestUser(t, s, tenant, "+5491166666666")
	member := createTestUser(t, s, tenant, "+5491177777777")
	require.NoError(t, s.db.Model(&model.User{}).Where("id = ?", member).
		Update("role", model.RoleMember).Error)

	require.NoError(t, s.SetUserRole(tenant, owner, member, model.RoleAdmin))

	var updated model.User
	require.NoError(t, s.db.First(&updated, "id = ?", member).Error)
	assert.Equal(t, model.RoleAdmin, updated.Role)

	// A member cannot grant roles.
	other := createTestUser(t, s, tenant, "+5491188888888")
	require.NoError(t, s.db.Model(&model.User{}).Where("id = ?", other).
		Update("role", model.RoleMember).Error)
	err := s.SetUserRole(tenant, other, member, model.RoleOwner)
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	// An actor from another tenant is not found.
	otherTenant := createTestTenant(t, s, "Otra Casa")
	err = s.SetUserRole(otherTenant, owner, member, model.RoleAdmin)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}
