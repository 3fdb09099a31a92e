package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

// AuditEntry is the payload for one append-only trail entry.
type AuditEntry struct {
	TenantID      *uuid.UUID
	CorrelationID string
	Actor         string
	Action        string
	EntityType    string
	EntityID      *uuid.UUID
	Input         model.JSON
	Output        model.JSON
	Status        string
	Duration      time.Duration
}

// RecordAudit appends one entry to the action trail. The trail is
// write-once; there is no accessor to update or delete entries.
func (s *Store) RecordAudit(in AuditEntry) (*model.AuditLog, error) {
	const op = "store.RecordAudit"

	if in.CorrelationID == "" {
		return nil, &ValidationError{Field: "correlation_id", Reason: "must not be empty"}
	}
	if in.Action == "" {
		return nil, &ValidationError{Field: "action", Reason: "must not be empty"}
	}
	if in.Status != model.AuditSuccess && in.Status != model.AuditFailure {
		return nil, &ValidationError{Field: "status", Reason: "must be success or failure"}
	}

	entry := model.AuditLog{
		TenantID:      in.TenantID,
		CorrelationID: in.CorrelationID,
		Actor:         in.Actor,
		Action:        in.Action,
		EntityType:    in.EntityType,
		EntityID:      in.EntityID,
		InputPayload:  in.Input,
		OutputPayload: in.Output,
		Status:        in.Status,
		DurationMS:    in.Duration.Milliseconds(),
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, translate(op, "audit entry", err)
	}
	return &entry, nil
}

// ListAuditByCorrelation returns every entry an external request
// produced, in order.
func (s *Store) ListAuditByCorrelation(correlationID string) ([]model.AuditLog, error) {
	const op = "store.ListAuditByCorrelation"

	if correlationID == "" {
		return nil, &ValidationError{Field: "correlation_id", Reason: "must not be empty"}
	}

	var entries []model.AuditLog
	if err := s.db.Where("correlation_id = ?", correlationID).
		Order("created_at").Find(&entries).Error; err != nil {
		return nil, translate(op, "audit entry", err)
	}
	return entries, nil
}

// ListTenantAudit returns a tenant's trail, newest first.
func (s *Store) ListTenantAudit(tenantID uuid.UUID, limit int) ([]model.AuditLog, error) {
	const op = "store.ListTenantAudit"

	if tenantID == uuid.Nil {
		return nil, &FatalError{Op: op, Err: errNoTenantScope}
	}
	if limit <= 0 {
		limit = 100
	}

	var entries []model.AuditLog
	if err := s.db.Where("tenant_id = ?", tenantID).
		Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, translate(op, "audit entry", err)
	}
	return entries, nil
}
