package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StringList is a json-encoded list column (applicable plans).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported list type %T", value)
	}
}

// Contains reports whether the list holds s.
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

// Coupon is a platform-wide discount code. CurrentRedemptions is kept
// consistent with the redemption rows by a transactional
// check-and-increment in the store; it is never maintained from a
// read-then-write pair.
type Coupon struct {
	ID                 uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Code               string     `json:"code" gorm:"type:varchar(100);not null"`
	Description        string     `json:"description" gorm:"type:text"`
	DiscountPercent    int        `json:"discount_percent" gorm:"not null"`
	ApplicablePlans    StringList `json:"applicable_plans" gorm:"type:jsonb"`
	ValidFrom          time.Time  `json:"valid_from" gorm:"not null"`
	ValidUntil         *time.Time `json:"valid_until,omitempty"`
	MaxRedemptions     *int       `json:"max_redemptions,omitempty"`
	CurrentRedemptions int        `json:"current_redemptions" gorm:"not null;default:0"`
	Active             bool       `json:"active" gorm:"default:true"`
	CreatedBy          *uuid.UUID `json:"created_by,omitempty" gorm:"type:uuid"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (c *Coupon) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.ValidFrom.IsZero() {
		c.ValidFrom = time.Now()
	}
	return nil
}

// CouponRedemption records one tenant redeeming one coupon. A tenant can
// redeem a given coupon at most once.
type CouponRedemption struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	CouponID        uuid.UUID       `json:"coupon_id" gorm:"type:uuid;not null;index"`
	TenantID        uuid.UUID       `json:"tenant_id" gorm:"type:uuid;not null;index"`
	SubscriptionID  *uuid.UUID      `json:"subscription_id,omitempty" gorm:"type:uuid"`
	OriginalPrice   decimal.Decimal `json:"original_price" gorm:"type:numeric(12,2);not null"`
	DiscountApplied decimal.Decimal `json:"discount_applied" gorm:"type:numeric(12,2);not null"`
	FinalPrice      decimal.Decimal `json:"final_price" gorm:"type:numeric(12,2);not null"`
	RedeemedAt      time.Time       `json:"redeemed_at"`
}

func (r *CouponRedemption) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.RedeemedAt.IsZero() {
		r.RedeemedAt = time.Now()
	}
	return nil
}
