package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

func TestApplyWithIdempotencyKeyRunsOnce(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	calls := 0
	op := func(tx *gorm.DB) (model.JSON, error) {
		calls++
		return model.MustJSON(map[string]string{"answer": "42"}), nil
	}

	result, replayed, err := s.ApplyWithIdempotencyKey(tenant, "op-1", op)
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, 1, calls)
	assert.JSONEq(t, `{"answer":"42"}`, string(result))

	// The replay returns the stored result without executing again.
	result, replayed, err = s.ApplyWithIdempotencyKey(tenant, "op-1", op)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, 1, calls)
	assert.JSONEq(t, `{"answer":"42"}`, string(result))
}

func TestApplyWithIdempotencyKeyFailureReleasesClaim(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	boom := errors.New("downstream unavailable")
	calls := 0

	_, _, err := s.ApplyWithIdempotencyKey(tenant, "op-2", func(tx *gorm.DB) (model.JSON, error) {
		calls++
		return nil, boom
	})
	require.Error(t, err)

	// The claim rolled back with the side effects; a retry starts fresh.
	result, replayed, err := s.ApplyWithIdempotencyKey(tenant, "op-2", func(tx *gorm.DB) (model.JSON, error) {
		calls++
		return model.MustJSON(map[string]bool{"ok": true}), nil
	})
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, 2, calls)
	assert.JSONEq(t, `{"ok":true}`, string(result))
}

func TestApplyWithIdempotencyKeyScopedPerTenant(t *testing.T) {
	s := newTestStore(t)
	tenantA := createTestTenant(t, s, "Casa A")
	tenantB := createTestTenant(t, s, "Casa B")

	calls := 0
	op := func(tx *gorm.DB) (model.JSON, error) {
		calls++
		return model.MustJSON(calls), nil
	}

	_, replayed, err := s.ApplyWithIdempotencyKey(tenantA, "same-key", op)
	require.NoError(t, err)
	assert.False(t, replayed)

	// The same key under another tenant is a fresh claim.
	_, replayed, err = s.ApplyWithIdempotencyKey(tenantB, "same-key", op)
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, 2, calls)
}

func TestApplyWithIdempotencyKeySideEffectsAtomic(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	_, _, err := s.ApplyWithIdempotencyKey(tenant, "op-3", func(tx *gorm.DB) (model.JSON, error) {
		item := model.ShoppingItem{TenantID: tenant, Name: "pan", Quantity: 1}
		if err := tx.Create(&item).Error; err != nil {
			return nil, err
		}
		return nil, errors.New("fail after write")
	})
	require.Error(t, err)

	// The side effect rolled back with the claim.
	items, err := s.ListShoppingItems(tenant, true)
	require.NoError(t, err)
	assert.Empty(t, items)

	record, err := s.GetIdempotencyRecord(tenant, "op-3")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Nil(t, record)
}

func TestApplyWithIdempotencyKeyValidation(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	_, _, err := s.ApplyWithIdempotencyKey(tenant, "", func(tx *gorm.DB) (model.JSON, error) {
		return nil, nil
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}
