package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is a tenant-scoped calendar event created by the bot or the API.
type Event struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID       uuid.UUID  `json:"tenant_id" gorm:"type:uuid;not null;index"`
	Title          string     `json:"title" gorm:"type:varchar(200);not null"`
	Location       string     `json:"location" gorm:"type:varchar(200)"`
	StartsAt       time.Time  `json:"starts_at" gorm:"not null"`
	EndsAt         *time.Time `json:"ends_at,omitempty"`
	IdempotencyKey *string    `json:"idempotency_key,omitempty" gorm:"type:varchar(100)"`
	CreatedBy      *uuid.UUID `json:"created_by,omitempty" gorm:"type:uuid"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *Event) OwnerTenantID() uuid.UUID { return e.TenantID }

// Reminder is a tenant-scoped reminder.
type Reminder struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID       uuid.UUID  `json:"tenant_id" gorm:"type:uuid;not null;index"`
	Title          string     `json:"title" gorm:"type:varchar(200);not null"`
	DueAt          time.Time  `json:"due_at" gorm:"not null"`
	Completed      bool       `json:"completed" gorm:"default:false"`
	IdempotencyKey *string    `json:"idempotency_key,omitempty" gorm:"type:varchar(100)"`
	CreatedBy      *uuid.UUID `json:"created_by,omitempty" gorm:"type:uuid"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (r *Reminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *Reminder) OwnerTenantID() uuid.UUID { return r.TenantID }
