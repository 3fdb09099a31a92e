package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

func TestScopedAccessorRejectsNilTenant(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateBudgetCategory(uuid.Nil, "Supermercado", decimal.NewFromInt(100), nil)
	require.Error(t, err)
	assert.True(t, IsFatal(err))

	_, err = s.ListExpenses(uuid.Nil, ExpenseFilter{})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestGuardBlocksUnscopedStatements(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	_, _, err := s.RegisterExpense(tenant, ExpenseInput{Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)

	// A query on a tenant-owned model without a bound tenant must not
	// return rows; it fails outright.
	var expenses []model.Expense
	err = s.db.Find(&expenses).Error
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Empty(t, expenses)

	// Same for updates and deletes.
	err = s.db.Model(&model.Expense{}).Where("1 = 1").Update("description", "x").Error
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestGuardAppendsBoundTenantFilter(t *testing.T) {
	s := newTestStore(t)
	tenantA := createTestTenant(t, s, "Casa A")
	tenantB := createTestTenant(t, s, "Casa B")

	_, _, err := s.RegisterExpense(tenantA, ExpenseInput{Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)

	// Even without an explicit WHERE, a session bound to the other
	// tenant sees nothing.
	var expenses []model.Expense
	require.NoError(t, s.db.Set(TenantScopeSetting, tenantB).Find(&expenses).Error)
	assert.Empty(t, expenses)

	require.NoError(t, s.db.Set(TenantScopeSetting, tenantA).Find(&expenses).Error)
	assert.Len(t, expenses, 1)
}

func TestGuardRejectsCreateForOtherTenant(t *testing.T) {
	s := newTestStore(t)
	tenantA := createTestTenant(t, s, "Casa A")
	tenantB := createTestTenant(t, s, "Casa B")

	// A create whose row belongs to a different tenant than the bound
	// scope is a programming error.
	row := model.ShoppingItem{TenantID: tenantB, Name: "pan", Quantity: 1}
	err := s.db.Set(TenantScopeSetting, tenantA).Create(&row).Error
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestGuardIgnoresUnownedModels(t *testing.T) {
	s := newTestStore(t)

	// Tenants themselves are not tenant-owned; no scope required.
	var tenants []model.Tenant
	require.NoError(t, s.db.Find(&tenants).Error)
}
