package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

// Identity is a resolved {tenant, user} pair. TenantID is nil for users
// acquired through OAuth before onboarding completes.
type Identity struct {
	UserID   uuid.UUID
	TenantID *uuid.UUID
	Role     string
	IsNew    bool
}

// ResolveByPhone maps an inbound phone number to its identity. Returns
// (nil, nil) when no active user holds the phone: the caller is expected
// to start the pending-registration flow. At most one active user can
// resolve from a phone.
func (s *Store) ResolveByPhone(phone string) (*Identity, error) {
	const op = "store.ResolveByPhone"

	if phone == "" {
		return nil, &ValidationError{Field: "phone", Reason: "must not be empty"}
	}

	var user model.User
	err := s.db.Where("phone = ? AND active = ?", phone, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(op, "user", err)
	}
	return &Identity{UserID: user.ID, TenantID: user.TenantID, Role: user.Role}, nil
}

// ResolveByOAuth maps a verified OAuth email to its identity, creating
// the user on first login. A first-login user has no tenant yet; the
// tenant is created later, once plan and payment complete.
func (s *Store) ResolveByOAuth(email, provider string) (*Identity, error) {
	const op = "store.ResolveByOAuth"

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, &ValidationError{Field: "email", Reason: "must be a valid address"}
	}
	if provider == "" {
		return nil, &ValidationError{Field: "provider", Reason: "must not be empty"}
	}

	var identity Identity
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var user model.User
		err := tx.Where("email = ? AND active = ?", email, true).
			Order("created_at").First(&user).Error
		if err == nil {
			identity = Identity{UserID: user.ID, TenantID: user.TenantID, Role: user.Role}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		user = model.User{
			Email:         &email,
			DisplayName:   strings.SplitN(email, "@", 2)[0],
			Role:          model.RoleOwner,
			AuthProvider:  provider,
			EmailVerified: true,
			Active:        true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		identity = Identity{UserID: user.ID, TenantID: nil, Role: user.Role, IsNew: true}
		return nil
	})
	if err != nil {
		return nil, translate(op, "user", err)
	}
	return &identity, nil
}

// LinkPhoneToUser binds a phone to an existing user, merging the phone
// channel into an OAuth identity. Fails with a conflict when the phone
// is already bound to a different active user.
func (s *Store) LinkPhoneToUser(userID uuid.UUID, phone string) error {
	const op = "store.LinkPhoneToUser"

	if phone == "" {
		return &ValidationError{Field: "phone", Reason: "must not be empty"}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var holder model.User
		err := tx.Where("phone = ? AND active = ?", phone, true).First(&holder).Error
		if err == nil {
			if holder.ID == userID {
				return nil
			}
			return &ConflictError{Entity: "phone", Reason: "already bound to another user"}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return translate(op, "user", err)
		}

		res := tx.Model(&model.User{}).Where("id = ?", userID).
			Updates(map[string]interface{}{"phone": phone, "phone_verified": true})
		if res.Error != nil {
			return translate(op, "user", res.Error)
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Entity: "user"}
		}
		return nil
	})
}

// MergeUsers merges a duplicate user into a canonical one after an
// explicit admin/user action confirmed both are the same person. The
// duplicate row is deactivated and back-references are repointed; audit
// history keeps the superseded id untouched.
func (s *Store) MergeUsers(canonicalID, duplicateID uuid.UUID) error {
	const op = "store.MergeUsers"

	if canonicalID == duplicateID {
		return &ValidationError{Field: "duplicate_id", Reason: "must differ from canonical id"}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var canonical, duplicate model.User
		if err := tx.First(&canonical, "id = ?", canonicalID).Error; err != nil {
			return err
		}
		if err := tx.First(&duplicate, "id = ?", duplicateID).Error; err != nil {
			return err
		}

		// Carry the phone over when the canonical row has none.
		if canonical.Phone == nil && duplicate.Phone != nil {
			phone := *duplicate.Phone
			if err := tx.Model(&model.User{}).Where("id = ?", duplicateID).
				Update("phone", nil).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.User{}).Where("id = ?", canonicalID).
				Updates(map[string]interface{}{"phone": phone, "phone_verified": duplicate.PhoneVerified}).Error; err != nil {
				return err
			}
		}
		if canonical.Email == nil && duplicate.Email != nil {
			if err := tx.Model(&model.User{}).Where("id = ?", canonicalID).
				Updates(map[string]interface{}{"email": *duplicate.Email, "email_verified": duplicate.EmailVerified}).Error; err != nil {
				return err
			}
		}

		// Repoint creator back-references. Audit entries are left alone.
		for _, table := range []string{"expenses", "events", "reminders", "shopping_items", "vehicles", "budget_categories"} {
			if err := tx.Exec(fmt.Sprintf("UPDATE %s SET created_by = ? WHERE created_by = ?", table),
				canonicalID, duplicateID).Error; err != nil {
				return err
			}
		}

		return tx.Model(&model.User{}).Where("id = ?", duplicateID).
			Update("active", false).Error
	})
	return translate(op, "user", err)
}

// SetUserRole changes a member's role. Only an owner or admin of the
// same tenant may do this; the conversational channel never reaches this
// accessor.
func (s *Store) SetUserRole(tenantID, actorID, userID uuid.UUID, role string) error {
	const op = "store.SetUserRole"

	switch role {
	case model.RoleOwner, model.RoleAdmin, model.RoleMember:
	default:
		return &ValidationError{Field: "role", Reason: "unknown role"}
	}
	if tenantID == uuid.Nil {
		return &FatalError{Op: op, Err: errNoTenantScope}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var actor model.User
		if err := tx.Where("id = ? AND tenant_id = ?", actorID, tenantID).First(&actor).Error; err != nil {
			return translate(op, "user", err)
		}
		if actor.Role != model.RoleOwner && actor.Role != model.RoleAdmin {
			return &ConflictError{Entity: "user", Reason: "actor may not change roles"}
		}

		res := tx.Model(&model.User{}).
			Where("id = ? AND tenant_id = ?", userID, tenantID).
			Update("role", role)
		if res.Error != nil {
			return translate(op, "user", res.Error)
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Entity: "user"}
		}
		return nil
	})
}
