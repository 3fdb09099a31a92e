package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pending registration statuses. Completed and expired are terminal.
const (
	RegistrationPending   = "pending"
	RegistrationCompleted = "completed"
	RegistrationExpired   = "expired"
)

// PendingRegistration is a provisional, unauthenticated signup captured by
// the onboarding conversation before payment confirms. It carries a TTL;
// the payment webhook promotes it into a Tenant+User pair exactly once.
type PendingRegistration struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Phone       string    `json:"phone" gorm:"type:varchar(30);not null;index"`
	DisplayName string    `json:"display_name" gorm:"type:varchar(100);not null"`
	HomeName    string    `json:"home_name" gorm:"type:varchar(150);not null"`
	PlanType    string    `json:"plan_type" gorm:"type:varchar(50);not null"`
	CouponCode  *string   `json:"coupon_code,omitempty" gorm:"type:varchar(50)"`
	CheckoutID  *string   `json:"checkout_id,omitempty" gorm:"type:varchar(100)"`
	Status      string    `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	// Set on promotion so webhook redeliveries can return the original result.
	TenantID  *uuid.UUID `json:"tenant_id,omitempty" gorm:"type:uuid"`
	UserID    *uuid.UUID `json:"user_id,omitempty" gorm:"type:uuid"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null;index"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (p *PendingRegistration) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
