package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

// CreateBudgetCategory creates a tenant-scoped category. The name is a
// natural key scoped to the tenant: the same name is valid in any number
// of other tenants.
func (s *Store) CreateBudgetCategory(tenantID uuid.UUID, name string, monthlyLimit decimal.Decimal, createdBy *uuid.UUID) (*model.BudgetCategory, error) {
	const op = "store.CreateBudgetCategory"

	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if monthlyLimit.IsNegative() {
		return nil, &ValidationError{Field: "monthly_limit", Reason: "must not be negative"}
	}

	db, err := s.scoped(op, tenantID)
	if err != nil {
		return nil, err
	}

	category := model.BudgetCategory{
		TenantID:     tenantID,
		Name:         name,
		MonthlyLimit: monthlyLimit,
		CreatedBy:    createdBy,
	}
	if err := db.Create(&category).Error; err != nil {
		return nil, translate(op, "budget category", err)
	}
	return &category, nil
}

// GetBudgetCategory fetches one category within the tenant. A category
// that exists under another tenant reports not found.
func (s *Store) GetBudgetCategory(tenantID, categoryID uuid.UUID) (*model.BudgetCategory, error) {
	const op = "store.GetBudgetCategory"

	db, err := s.scoped(op, tenantID)
	if err != nil {
		return nil, err
	}

	var category model.BudgetCategory
	err = db.Where("tenant_id = ? AND id = ?", tenantID, categoryID).First(&category).Error
	if err != nil {
		return nil, translate(op, "budget category", err)
	}
	return &category, nil
}

// ListBudgetCategories returns the tenant's categories ordered by name.
func (s *Store) ListBudgetCategories(tenantID uuid.UUID) ([]model.BudgetCategory, error) {
	const op = "store.ListBudgetCategories"

	db, err := s.scoped(op, tenantID)
	if err != nil {
		return nil, err
	}

	var categories []model.BudgetCategory
	err = db.Where("tenant_id = ?", tenantID).Order("name").Find(&categories).Error
	if err != nil {
		return nil, translate(op, "budget category", err)
	}
	return categories, nil
}

// ExpenseInput is the payload for registering an expense.
type ExpenseInput struct {
	Amount         decimal.Decimal
	CategoryID     *uuid.UUID
	Description    string
	ExpenseDate    time.Time
	IdempotencyKey *string
	CreatedBy      *uuid.UUID
}

// RegisterExpense records an expense with at-most-once effect. When the
// input carries an idempotency key and a row with the same (tenant, key)
// already exists, the original row is returned and replayed is true; no
// duplicate is created.
func (s *Store) RegisterExpense(tenantID uuid.UUID, in ExpenseInput) (expense *model.Expense, replayed bool, err error) {
	const op = "store.RegisterExpense"

	if !in.Amount.IsPositive() {
		return nil, false, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if in.IdempotencyKey != nil && *in.IdempotencyKey == "" {
		return nil, false, &ValidationError{Field: "idempotency_key", Reason: "must not be empty"}
	}

	db, err := s.scoped(op, tenantID)
	if err != nil {
		return nil, false, err
	}

	if in.ExpenseDate.IsZero() {
		in.ExpenseDate = time.Now()
	}

	row := model.Expense{
		TenantID:       tenantID,
		CategoryID:     in.CategoryID,
		Amount:         in.Amount,
		Description:    in.Description,
		ExpenseDate:    in.ExpenseDate,
		IdempotencyKey: in.IdempotencyKey,
		CreatedBy:      in.CreatedBy,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// The referenced category must belong to the same tenant. A
		// cross-tenant reference is indistinguishable from absence.
		if in.CategoryID != nil {
			var n int64
			if err := tx.Model(&model.BudgetCategory{}).
				Where("tenant_id = ? AND id = ?", tenantID, *in.CategoryID).
				Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return &NotFoundError{Entity: "budget category"}
			}
		}

		if in.IdempotencyKey == nil {
			return tx.Create(&row).Error
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: "tenant_id"}, {Name: "idempotency_key"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "idempotency_key IS NOT NULL"}}},
			DoNothing:   true,
		}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Fetch into a fresh value: row already carries the generated
			// id, which First would add to the conditions.
			var existing model.Expense
			if err := tx.Where("tenant_id = ? AND idempotency_key = ?", tenantID, *in.IdempotencyKey).
				First(&existing).Error; err != nil {
				return err
			}
			row = existing
			replayed = true
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, false, translate(op, "expense", err)
	}
	return &row, replayed, nil
}

// ExpenseFilter narrows ListExpenses.
type ExpenseFilter struct {
	From       *time.Time
	To         *time.Time
	CategoryID *uuid.UUID
	Limit      int
	Offset     int
}

// ListExpenses returns the tenant's expenses, newest first.
func (s *Store) ListExpenses(tenantID uuid.UUID, filter ExpenseFilter) ([]model.Expense, error) {
	const op = "store.ListExpenses"

	db, err := s.scoped(op, tenantID)
	if err != nil {
		return nil, err
	}

	q := db.Where("tenant_id = ?", tenantID)
	if filter.From != nil {
		q = q.Where("expense_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("expense_date <= ?", *filter.To)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var expenses []model.Expense
	err = q.Order("expense_date DESC, created_at DESC").
		Limit(limit).Offset(filter.Offset).
		Find(&expenses).Error
	if err != nil {
		return nil, translate(op, "expense", err)
	}
	return expenses, nil
}
