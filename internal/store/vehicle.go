package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

// AddVehicle registers a household vehicle.
func (s *Store) AddVehicle(tenantID uuid.UUID, name, plate string, createdBy *uuid.UUID) (*model.Vehicle, error) {
	const op = "store.AddVehicle"

	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	db, err := s.scoped(op, tenantID)
	if err != nil {
		return nil, err
	}

	vehicle := model.Vehicle{
		TenantID:    tenantID,
		Name:        name,
		PlateNumber: plate,
		CreatedBy:   createdBy,
	}
	if err := db.Create(&vehicle).Error; err != nil {
		return nil, translate(op, "vehicle", err)
	}
	return &vehicle, nil
}

// VehicleServiceInput is the payload for a maintenance record.
type VehicleServiceInput struct {
	VehicleID   uuid.UUID
	ServiceType string
	ServiceDate time.Time
	Cost        decimal.Decimal
	Notes       string
	CreatedBy   *uuid.UUID
}

// AddVehicleService records maintenance for a vehicle of the same
// tenant; a vehicle under another tenant reports not found.
func (s *Store) AddVehicleService(tenantID uuid.UUID, in VehicleServiceInput) (*model.VehicleService, error) {
	const op = "store.AddVehicleService"

	if in.ServiceType == "" {
		return nil, &ValidationError{Field: "service_type", Reason: "must not be empty"}
	}
	if in.Cost.IsNegative() {
		return nil, &ValidationError{Field: "cost", Reason: "must not be negative"}
	}

	db, err := s.scoped(op, tenantID)
	if err != nil {
		return nil, err
	}

	if in.ServiceDate.IsZero() {
		in.ServiceDate = time.Now()
	}

	record := model.VehicleService{
		TenantID:    tenantID,
		VehicleID:   in.VehicleID,
		ServiceType: in.ServiceType,
		ServiceDate: in.ServiceDate,
		Cost:        in.Cost,
		Notes:       in.Notes,
		CreatedBy:   in.CreatedBy,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Vehicle{}).
			Where("tenant_id = ? AND id = ?", tenantID, in.VehicleID).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return &NotFoundError{Entity: "vehicle"}
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, translate(op, "vehicle service", err)
	}
	return &record, nil
}

// ListVehicles returns the tenant's vehicles.
func (s *Store) ListVehicles(tenantID uuid.UUID) ([]model.Vehicle, error) {
	const op = "store.ListVehicles"

	db, err := s.scoped(op, tenantID)
	if err != nil {
		return nil, err
	}

	var vehicles []model.Vehicle
	if err := db.Where("tenant_id = ?", tenantID).Order("name").Find(&vehicles).Error; err != nil {
		return nil, translate(op, "vehicle", err)
	}
	return vehicles, nil
}
