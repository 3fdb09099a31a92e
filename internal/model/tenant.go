package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantSettings is the closed, versioned configuration blob stored on a
// tenant. It replaces an open jsonb map so that writes are validated and
// fields are known at compile time.
type TenantSettings struct {
	Timezone string `json:"timezone,omitempty"`
	Locale   string `json:"locale,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// Value implements driver.Valuer so gorm can persist settings as jsonb.
func (s TenantSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *TenantSettings) Scan(value interface{}) error {
	if value == nil {
		*s = TenantSettings{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported settings type %T", value)
	}
}

// Tenant represents a household account. Tenants share the physical store
// but never their data; every tenant-scoped entity carries exactly one
// tenant reference, immutable after creation.
type Tenant struct {
	ID                  uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name                string         `json:"name" gorm:"type:varchar(150);not null"`
	Active              bool           `json:"active" gorm:"default:true"`
	Settings            TenantSettings `json:"settings" gorm:"type:jsonb"`
	PlanType            string         `json:"plan_type" gorm:"type:varchar(50)"`
	OnboardingCompleted bool           `json:"onboarding_completed" gorm:"default:false"`
	OwnerUserID         *uuid.UUID     `json:"owner_user_id,omitempty" gorm:"type:uuid"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `json:"-" gorm:"index"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
