package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Vehicle is a tenant-scoped household vehicle.
type Vehicle struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID  `json:"tenant_id" gorm:"type:uuid;not null;index"`
	Name        string     `json:"name" gorm:"type:varchar(100);not null"`
	PlateNumber string     `json:"plate_number" gorm:"type:varchar(20)"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty" gorm:"type:uuid"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func (v *Vehicle) OwnerTenantID() uuid.UUID { return v.TenantID }

// VehicleService is a maintenance record for a vehicle of the same tenant.
type VehicleService struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID       `json:"tenant_id" gorm:"type:uuid;not null;index"`
	VehicleID   uuid.UUID       `json:"vehicle_id" gorm:"type:uuid;not null;index"`
	ServiceType string          `json:"service_type" gorm:"type:varchar(100);not null"`
	ServiceDate time.Time       `json:"service_date" gorm:"not null"`
	Cost        decimal.Decimal `json:"cost" gorm:"type:numeric(12,2)"`
	Notes       string          `json:"notes" gorm:"type:text"`
	CreatedBy   *uuid.UUID      `json:"created_by,omitempty" gorm:"type:uuid"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (s *VehicleService) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *VehicleService) OwnerTenantID() uuid.UUID { return s.TenantID }
