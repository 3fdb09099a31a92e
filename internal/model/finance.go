package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BudgetCategory is a tenant-scoped spending category. The category name
// is unique per tenant, not globally.
type BudgetCategory struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID       `json:"tenant_id" gorm:"type:uuid;not null;index"`
	Name         string          `json:"name" gorm:"type:varchar(100);not null"`
	MonthlyLimit decimal.Decimal `json:"monthly_limit" gorm:"type:numeric(12,2)"`
	CreatedBy    *uuid.UUID      `json:"created_by,omitempty" gorm:"type:uuid"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (c *BudgetCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// OwnerTenantID marks the model as tenant-guarded.
func (c *BudgetCategory) OwnerTenantID() uuid.UUID { return c.TenantID }

// Expense is a tenant-scoped expense record. IdempotencyKey is unique per
// tenant over non-null values: replaying the same external request must
// not create a duplicate row.
type Expense struct {
	ID             uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID       uuid.UUID       `json:"tenant_id" gorm:"type:uuid;not null;index"`
	CategoryID     *uuid.UUID      `json:"category_id,omitempty" gorm:"type:uuid;index"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Description    string          `json:"description" gorm:"type:text"`
	ExpenseDate    time.Time       `json:"expense_date" gorm:"not null"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty" gorm:"type:varchar(100)"`
	CreatedBy      *uuid.UUID      `json:"created_by,omitempty" gorm:"type:uuid"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *Expense) OwnerTenantID() uuid.UUID { return e.TenantID }
