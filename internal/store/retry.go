package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

// FailedOperationInput is the payload for parking a failed side effect.
type FailedOperationInput struct {
	TenantID      *uuid.UUID
	OperationType string
	Payload       model.JSON
	ErrorMessage  string
	CorrelationID string
}

// EnqueueFailedOperation parks an operation that failed transiently for
// bounded retry. The first attempt is due immediately.
func (s *Store) EnqueueFailedOperation(in FailedOperationInput) (*model.FailedOperation, error) {
	const op = "store.EnqueueFailedOperation"

	if in.OperationType == "" {
		return nil, &ValidationError{Field: "operation_type", Reason: "must not be empty"}
	}

	row := model.FailedOperation{
		TenantID:      in.TenantID,
		OperationType: in.OperationType,
		Payload:       in.Payload,
		ErrorMessage:  in.ErrorMessage,
		CorrelationID: in.CorrelationID,
		RetryCount:    0,
		MaxRetries:    s.maxRetries,
		NextRetryAt:   time.Now(),
		Status:        model.FailedOpPending,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return nil, translate(op, "failed operation", err)
	}
	return &row, nil
}

// ClaimDueOperations moves due pending rows to processing and returns
// them. Each row is claimed by at most one worker; the guarded update
// decides ownership.
func (s *Store) ClaimDueOperations(limit int) ([]model.FailedOperation, error) {
	const op = "store.ClaimDueOperations"

	if limit <= 0 {
		limit = 10
	}

	var claimed []model.FailedOperation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var due []model.FailedOperation
		if err := tx.Where("status = ? AND next_retry_at <= ?", model.FailedOpPending, time.Now()).
			Order("next_retry_at").Limit(limit).Find(&due).Error; err != nil {
			return err
		}

		for _, row := range due {
			res := tx.Model(&model.FailedOperation{}).
				Where("id = ? AND status = ?", row.ID, model.FailedOpPending).
				Update("status", model.FailedOpProcessing)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				row.Status = model.FailedOpProcessing
				claimed = append(claimed, row)
			}
		}
		return nil
	})
	if err != nil {
		return nil, translate(op, "failed operation", err)
	}
	return claimed, nil
}

// MarkOperationCompleted closes a retried operation that succeeded.
func (s *Store) MarkOperationCompleted(operationID uuid.UUID) error {
	const op = "store.MarkOperationCompleted"

	res := s.db.Model(&model.FailedOperation{}).
		Where("id = ? AND status = ?", operationID, model.FailedOpProcessing).
		Update("status", model.FailedOpCompleted)
	if res.Error != nil {
		return translate(op, "failed operation", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "failed operation"}
	}
	return nil
}

// MarkOperationFailed records another failed attempt. The row returns to
// pending with exponential backoff until the retry budget is spent, then
// moves to dead. Dead is terminal and waits for manual intervention.
func (s *Store) MarkOperationFailed(operationID uuid.UUID, errorMessage string) (*model.FailedOperation, error) {
	const op = "store.MarkOperationFailed"

	var row model.FailedOperation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND status = ?", operationID, model.FailedOpProcessing).
			First(&row).Error; err != nil {
			return err
		}

		row.RetryCount++
		row.ErrorMessage = errorMessage

		updates := map[string]interface{}{
			"retry_count":   row.RetryCount,
			"error_message": errorMessage,
		}
		if row.RetryCount >= row.MaxRetries {
			row.Status = model.FailedOpDead
			updates["status"] = model.FailedOpDead
		} else {
			backoff := s.baseBackoff << (row.RetryCount - 1)
			row.Status = model.FailedOpPending
			row.NextRetryAt = time.Now().Add(backoff)
			updates["status"] = model.FailedOpPending
			updates["next_retry_at"] = row.NextRetryAt
		}

		return tx.Model(&model.FailedOperation{}).
			Where("id = ?", operationID).Updates(updates).Error
	})
	if err != nil {
		return nil, translate(op, "failed operation", err)
	}
	return &row, nil
}

// ListDeadOperations returns rows that exhausted their retry budget.
func (s *Store) ListDeadOperations(limit int) ([]model.FailedOperation, error) {
	const op = "store.ListDeadOperations"

	if limit <= 0 {
		limit = 100
	}

	var rows []model.FailedOperation
	if err := s.db.Where("status = ?", model.FailedOpDead).
		Order("updated_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, translate(op, "failed operation", err)
	}
	return rows, nil
}

// RequeueDeadOperation puts a dead row back in the queue after manual
// intervention, with a fresh retry budget.
func (s *Store) RequeueDeadOperation(operationID uuid.UUID) error {
	const op = "store.RequeueDeadOperation"

	res := s.db.Model(&model.FailedOperation{}).
		Where("id = ? AND status = ?", operationID, model.FailedOpDead).
		Updates(map[string]interface{}{
			"status":        model.FailedOpPending,
			"retry_count":   0,
			"next_retry_at": time.Now(),
		})
	if res.Error != nil {
		return translate(op, "failed operation", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "failed operation"}
	}
	return nil
}
