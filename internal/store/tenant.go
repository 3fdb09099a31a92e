package store

import (
	"github.com/google/uuid"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

// GetTenant returns a tenant by id.
func (s *Store) GetTenant(tenantID uuid.UUID) (*model.Tenant, error) {
	const op = "store.GetTenant"

	if tenantID == uuid.Nil {
		return nil, &FatalError{Op: op, Err: errNoTenantScope}
	}

	var tenant model.Tenant
	if err := s.db.First(&tenant, "id = ?", tenantID).Error; err != nil {
		return nil, translate(op, "tenant", err)
	}
	return &tenant, nil
}

// UpdateTenantSettings replaces the tenant's preference blob.
func (s *Store) UpdateTenantSettings(tenantID uuid.UUID, settings model.TenantSettings) error {
	const op = "store.UpdateTenantSettings"

	if tenantID == uuid.Nil {
		return &FatalError{Op: op, Err: errNoTenantScope}
	}

	res := s.db.Model(&model.Tenant{}).
		Where("id = ?", tenantID).
		Update("settings", settings)
	if res.Error != nil {
		return translate(op, "tenant", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "tenant"}
	}
	return nil
}

// ListTenantMembers returns the tenant's active users.
func (s *Store) ListTenantMembers(tenantID uuid.UUID) ([]model.User, error) {
	const op = "store.ListTenantMembers"

	if tenantID == uuid.Nil {
		return nil, &FatalError{Op: op, Err: errNoTenantScope}
	}

	var users []model.User
	if err := s.db.Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("created_at").Find(&users).Error; err != nil {
		return nil, translate(op, "user", err)
	}
	return users, nil
}
