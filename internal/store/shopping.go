package store

import (
	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

// ShoppingItemInput is the payload for adding a shopping list entry.
type ShoppingItemInput struct {
	Name           string
	Quantity       int
	IdempotencyKey *string
	CreatedBy      *uuid.UUID
}

// AddShoppingItem appends to the tenant's shopping list with
// at-most-once effect per (tenant, idempotency key).
func (s *Store) AddShoppingItem(tenantID uuid.UUID, in ShoppingItemInput) (item *model.ShoppingItem, replayed bool, err error) {
	const op = "store.AddShoppingItem"

	if in.Name == "" {
		return nil, false, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if in.Quantity <= 0 {
		in.Quantity = 1
	}

	db, err := s.scoped(op, tenantID)
	if err != nil {
		return nil, false, err
	}

	row := model.ShoppingItem{
		TenantID:       tenantID,
		Name:           in.Name,
		Quantity:       in.Quantity,
		IdempotencyKey: in.IdempotencyKey,
		CreatedBy:      in.CreatedBy,
	}

	if in.IdempotencyKey == nil {
		if err := db.Create(&row).Error; err != nil {
			return nil, false, translate(op, "shopping item", err)
		}
		return &row, false, nil
	}

	res := db.Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "tenant_id"}, {Name: "idempotency_key"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "idempotency_key IS NOT NULL"}}},
		DoNothing:   true,
	}).Create(&row)
	if res.Error != nil {
		return nil, false, translate(op, "shopping item", res.Error)
	}
	if res.RowsAffected == 0 {
		// Fetch into a fresh value: row already carries the generated id,
		// which First would add to the conditions.
		var existing model.ShoppingItem
		err = db.Where("tenant_id = ? AND idempotency_key = ?", tenantID, *in.IdempotencyKey).First(&existing).Error
		if err != nil {
			return nil, false, translate(op, "shopping item", err)
		}
		return &existing, true, nil
	}
	return &row, false, nil
}

// MarkItemPurchased flags an item bought.
func (s *Store) MarkItemPurchased(tenantID, itemID uuid.UUID) error {
	const op = "store.MarkItemPurchased"

	db, err := s.scoped(op, tenantID)
	if err != nil {
		return err
	}

	res := db.Model(&model.ShoppingItem{}).
		Where("tenant_id = ? AND id = ?", tenantID, itemID).
		Update("purchased", true)
	if res.Error != nil {
		return translate(op, "shopping item", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "shopping item"}
	}
	return nil
}

// ListShoppingItems returns the tenant's open shopping list.
func (s *Store) ListShoppingItems(tenantID uuid.UUID, includePurchased bool) ([]model.ShoppingItem, error) {
	const op = "store.ListShoppingItems"

	db, err := s.scoped(op, tenantID)
	if err != nil {
		return nil, err
	}

	q := db.Where("tenant_id = ?", tenantID)
	if !includePurchased {
		q = q.Where("purchased = ?", false)
	}

	var items []model.ShoppingItem
	if err := q.Order("created_at").Find(&items).Error; err != nil {
		return nil, translate(op, "shopping item", err)
	}
	return items, nil
}
