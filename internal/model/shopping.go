package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShoppingItem is a tenant-scoped shopping list entry.
type ShoppingItem struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID       uuid.UUID  `json:"tenant_id" gorm:"type:uuid;not null;index"`
	Name           string     `json:"name" gorm:"type:varchar(150);not null"`
	Quantity       int        `json:"quantity" gorm:"default:1"`
	Purchased      bool       `json:"purchased" gorm:"default:false"`
	IdempotencyKey *string    `json:"idempotency_key,omitempty" gorm:"type:varchar(100)"`
	CreatedBy      *uuid.UUID `json:"created_by,omitempty" gorm:"type:uuid"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (s *ShoppingItem) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *ShoppingItem) OwnerTenantID() uuid.UUID { return s.TenantID }
