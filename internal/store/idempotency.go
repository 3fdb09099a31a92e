package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

// ApplyWithIdempotencyKey gives op at-most-once effect per (tenant, key).
// The first caller claims the key, runs op and stores its result in the
// same transaction; the claim and the side effects commit or roll back
// together. A repeat of a completed key replays the stored result without
// running op. A repeat racing the first attempt conflicts: the caller
// retries after the in-flight attempt settles.
func (s *Store) ApplyWithIdempotencyKey(tenantID uuid.UUID, key string, op func(tx *gorm.DB) (model.JSON, error)) (result model.JSON, replayed bool, err error) {
	const opName = "store.ApplyWithIdempotencyKey"

	if key == "" {
		return nil, false, &ValidationError{Field: "idempotency_key", Reason: "must not be empty"}
	}
	db, err := s.scoped(opName, tenantID)
	if err != nil {
		return nil, false, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		claim := model.IdempotencyRecord{
			TenantID: tenantID,
			Key:      key,
			Status:   model.IdempotencyInFlight,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "key"}},
			DoNothing: true,
		}).Create(&claim)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var existing model.IdempotencyRecord
			if err := tx.Where("tenant_id = ? AND key = ?", tenantID, key).
				First(&existing).Error; err != nil {
				return err
			}
			if existing.Status == model.IdempotencyCompleted {
				result = existing.Result
				replayed = true
				return nil
			}
			return &ConflictError{Entity: "idempotency key", Reason: "operation in flight"}
		}

		out, opErr := op(tx)
		if opErr != nil {
			// Roll back claim and side effects together so a later
			// retry with the same key starts fresh.
			return opErr
		}

		now := time.Now()
		if err := tx.Model(&model.IdempotencyRecord{}).
			Where("id = ?", claim.ID).
			Updates(map[string]interface{}{
				"status":       model.IdempotencyCompleted,
				"result":       out,
				"completed_at": now,
			}).Error; err != nil {
			return err
		}
		result = out
		return nil
	})
	if err != nil {
		return nil, false, translate(opName, "idempotency key", err)
	}
	return result, replayed, nil
}

// GetIdempotencyRecord looks up a claim, for inspection.
func (s *Store) GetIdempotencyRecord(tenantID uuid.UUID, key string) (*model.IdempotencyRecord, error) {
	const op = "store.GetIdempotencyRecord"

	db, err := s.scoped(op, tenantID)
	if err != nil {
		return nil, err
	}

	var record model.IdempotencyRecord
	err = db.Where("tenant_id = ? AND key = ?", tenantID, key).First(&record).Error
	if err != nil {
		return nil, translate(op, "idempotency key", err)
	}
	return &record, nil
}
