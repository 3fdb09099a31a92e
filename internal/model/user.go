package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles within a tenant.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Auth providers.
const (
	AuthProviderPhone  = "phone"
	AuthProviderGoogle = "google"
)

// User represents a person belonging to a tenant.
//
// Phone is nullable: OAuth-only identities have no phone until one is
// linked. Uniqueness is enforced only over non-null phones (partial unique
// index created by the migration history, after placeholder phones were
// nulled out). TenantID is nullable for users acquired through OAuth
// before their tenant exists.
type User struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID      *uuid.UUID     `json:"tenant_id,omitempty" gorm:"type:uuid;index"`
	Phone         *string        `json:"phone,omitempty" gorm:"type:varchar(30)"`
	Email         *string        `json:"email,omitempty" gorm:"type:varchar(150);index"`
	DisplayName   string         `json:"display_name" gorm:"type:varchar(100)"`
	Role          string         `json:"role" gorm:"type:varchar(20);not null;default:'member'"`
	AuthProvider  string         `json:"auth_provider" gorm:"type:varchar(20);not null;default:'phone'"`
	PhoneVerified bool           `json:"phone_verified" gorm:"default:false"`
	EmailVerified bool           `json:"email_verified" gorm:"default:false"`
	Active        bool           `json:"active" gorm:"default:true"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// PhoneTenantMapping is the superseded phone-to-tenant resolution table.
// Identity resolution was folded into User; this relation is retained
// inert under a deprecation prefix for forensic recovery and is never
// written by application code.
type PhoneTenantMapping struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Phone      string     `json:"phone" gorm:"type:varchar(30);not null"`
	TenantID   uuid.UUID  `json:"tenant_id" gorm:"type:uuid;not null"`
	UserID     *uuid.UUID `json:"user_id,omitempty" gorm:"type:uuid"`
	IsPrimary  bool       `json:"is_primary" gorm:"default:false"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName points at the renamed, deprecated relation.
func (PhoneTenantMapping) TableName() string {
	return "deprecated_phone_tenant_mappings"
}
