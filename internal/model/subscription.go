package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Subscription statuses. The machine is
// pending -> authorized -> {paused, cancelled, ended}.
const (
	SubscriptionPending    = "pending"
	SubscriptionAuthorized = "authorized"
	SubscriptionPaused     = "paused"
	SubscriptionCancelled  = "cancelled"
	SubscriptionEnded      = "ended"
)

// Plan types offered by the product.
const (
	PlanFamily  = "family"
	PlanPremium = "premium"
)

// Subscription links a tenant to the external billing system. TenantID is
// nullable: subscriptions created during onboarding exist before the
// tenant does and are attached on promotion.
type Subscription struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID         *uuid.UUID `json:"tenant_id,omitempty" gorm:"type:uuid;index"`
	PlanType         string     `json:"plan_type" gorm:"type:varchar(50);not null"`
	Status           string     `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	ProviderSubID    *string    `json:"provider_subscription_id,omitempty" gorm:"column:provider_subscription_id;type:varchar(100)"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// PlanPricing is the platform-wide price list read by onboarding.
type PlanPricing struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	PlanType  string          `json:"plan_type" gorm:"type:varchar(50);not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Currency  string          `json:"currency" gorm:"type:varchar(10);not null;default:'ARS'"`
	Active    bool            `json:"active" gorm:"default:true"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (p *PlanPricing) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
