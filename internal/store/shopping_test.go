package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

func TestAddShoppingItemIdempotencyKey(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	in := ShoppingItemInput{
		Name:           "Yerba",
		Quantity:       2,
		IdempotencyKey: strptr("k1"),
	}

	first, replayed, err := s.AddShoppingItem(tenant, in)
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := s.AddShoppingItem(tenant, in)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, s.db.Set(TenantScopeSetting, tenant).
		Model(&model.ShoppingItem{}).Where("tenant_id = ?", tenant).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAddShoppingItemSameKeyDifferentTenants(t *testing.T) {
	s := newTestStore(t)
	tenantA := createTestTenant(t, s, "Casa A")
	tenantB := createTestTenant(t, s, "Casa B")

	in := ShoppingItemInput{Name: "Leche", IdempotencyKey: strptr("k1")}

	a, replayed, err := s.AddShoppingItem(tenantA, in)
	require.NoError(t, err)
	assert.False(t, replayed)

	// The key is scoped to the tenant, not global.
	b, replayed, err := s.AddShoppingItem(tenantB, in)
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestAddShoppingItemDefaultsQuantity(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	item, _, err := s.AddShoppingItem(tenant, ShoppingItemInput{Name: "Pan", Quantity: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)

	_, _, err = s.AddShoppingItem(tenant, ShoppingItemInput{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestMarkItemPurchasedCrossTenant(t *testing.T) {
	s := newTestStore(t)
	tenantA := createTestTenant(t, s, "Casa A")
	tenantB := createTestTenant(t, s, "Casa B")

	item, _, err := s.AddShoppingItem(tenantA, ShoppingItemInput{Name: "Fideos"})
	require.NoError(t, err)

	// Another tenant's item is indistinguishable from a missing one.
	err = s.MarkItemPurchased(tenantB, item.ID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	require.NoError(t, s.MarkItemPurchased(tenantA, item.ID))
}

func TestListShoppingItemsDoesNotLeakAcrossTenants(t *testing.T) {
	s := newTestStore(t)
	tenantA := createTestTenant(t, s, "Casa A")
	tenantB := createTestTenant(t, s, "Casa B")

	item, _, err := s.AddShoppingItem(tenantA, ShoppingItemInput{Name: "Azucar"})
	require.NoError(t, err)
	_, _, err = s.AddShoppingItem(tenantA, ShoppingItemInput{Name: "Cafe"})
	require.NoError(t, err)

	theirs, err := s.ListShoppingItems(tenantB, true)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	// Purchased items fall off the open list unless asked for.
	require.NoError(t, s.MarkItemPurchased(tenantA, item.ID))

	open, err := s.ListShoppingItems(tenantA, false)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "Cafe", open[0].Name)

	all, err := s.ListShoppingItems(tenantA, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
