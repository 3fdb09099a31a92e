package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

// EventInput is the payload for creating a calendar event.
type EventInput struct {
	Title          string
	Location       string
	StartsAt       time.Time
	EndsAt         *time.Time
	IdempotencyKey *string
	CreatedBy      *uuid.UUID
}

// CreateEvent records a calendar event with at-most-once effect per
// (tenant, idempotency key).
func (s *Store) CreateEvent(tenantID uuid.UUID, in EventInput) (event *model.Event, replayed bool, err error) {
	const op = "store.CreateEvent"

	if in.Title == "" {
		return nil, false, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if in.StartsAt.IsZero() {
		return nil, false, &ValidationError{Field: "starts_at", Reason: "must be set"}
	}
	if in.EndsAt != nil && in.EndsAt.Before(in.StartsAt) {
		return nil, false, &ValidationError{Field: "ends_at", Reason: "must not precede starts_at"}
	}

	db, err := s.scoped(op, tenantID)
	if err != nil {
		return nil, false, err
	}

	row := model.Event{
		TenantID:       tenantID,
		Title:          in.Title,
		Location:       in.Location,
		StartsAt:       in.StartsAt,
		EndsAt:         in.EndsAt,
		IdempotencyKey: in.IdempotencyKey,
		CreatedBy:      in.CreatedBy,
	}

	if in.IdempotencyKey == nil {
		if err := db.Create(&row).Error; err != nil {
			return nil, false, translate(op, "event", err)
		}
		return &row, false, nil
	}

	res := db.Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "tenant_id"}, {Name: "idempotency_key"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "idempotency_key IS NOT NULL"}}},
		DoNothing:   true,
	}).Create(&row)
	if res.Error != nil {
		return nil, false, translate(op, "event", res.Error)
	}
	if res.RowsAffected == 0 {
		// Fetch into a fresh value: row already carries the generated id,
		// which First would add to the conditions.
		var existing model.Event
		err = db.Where("tenant_id = ? AND idempotency_key = ?", tenantID, *in.IdempotencyKey).First(&existing).Error
		if err != nil {
			return nil, false, translate(op, "event", err)
		}
		return &existing, true, nil
	}
	return &row, false, nil
}

// ListEvents returns the tenant's events starting in [from, to).
func (s *Store) ListEvents(tenantID uuid.UUID, from, to time.Time) ([]model.Event, error) {
	const op = "store.ListEvents"

	db, err := s.scoped(op, tenantID)
	if err != nil {
		return nil, err
	}

	var events []model.Event
	q := db.Where("tenant_id = ?", tenantID)
	if !from.IsZero() {
		q = q.Where("starts_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("starts_at < ?", to)
	}
	if err := q.Order("starts_at").Find(&events).Error; err != nil {
		return nil, translate(op, "event", err)
	}
	return events, nil
}

// ReminderInput is the payload for creating a reminder.
type ReminderInput struct {
	Title          string
	DueAt          time.Time
	IdempotencyKey *string
	CreatedBy      *uuid.UUID
}

// CreateReminder records a reminder with at-most-once effect per
// (tenant, idempotency key).
func (s *Store) CreateReminder(tenantID uuid.UUID, in ReminderInput) (reminder *model.Reminder, replayed bool, err error) {
	const op = "store.CreateReminder"

	if in.Title == "" {
		return nil, false, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if in.DueAt.IsZero() {
		return nil, false, &ValidationError{Field: "due_at", Reason: "must be set"}
	}

	db, err := s.scoped(op, tenantID)
	if err != nil {
		return nil, false, err
	}

	row := model.Reminder{
		TenantID:       tenantID,
		Title:          in.Title,
		DueAt:          in.DueAt,
		IdempotencyKey: in.IdempotencyKey,
		CreatedBy:      in.CreatedBy,
	}

	if in.IdempotencyKey == nil {
		if err := db.Create(&row).Error; err != nil {
			return nil, false, translate(op, "reminder", err)
		}
		return &row, false, nil
	}

	res := db.Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "tenant_id"}, {Name: "idempotency_key"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "idempotency_key IS NOT NULL"}}},
		DoNothing:   true,
	}).Create(&row)
	if res.Error != nil {
		return nil, false, translate(op, "reminder", res.Error)
	}
	if res.RowsAffected == 0 {
		var existing model.Reminder
		err = db.Where("tenant_id = ? AND idempotency_key = ?", tenantID, *in.IdempotencyKey).First(&existing).Error
		if err != nil {
			return nil, false, translate(op, "reminder", err)
		}
		return &existing, true, nil
	}
	return &row, false, nil
}

// CompleteReminder marks a reminder done.
func (s *Store) CompleteReminder(tenantID, reminderID uuid.UUID) error {
	const op = "store.CompleteReminder"

	db, err := s.scoped(op, tenantID)
	if err != nil {
		return err
	}

	res := db.Model(&model.Reminder{}).
		Where("tenant_id = ? AND id = ?", tenantID, reminderID).
		Update("completed", true)
	if res.Error != nil {
		return translate(op, "reminder", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "reminder"}
	}
	return nil
}

// ListReminders returns the tenant's reminders, pending first.
func (s *Store) ListReminders(tenantID uuid.UUID, includeCompleted bool) ([]model.Reminder, error) {
	const op = "store.ListReminders"

	db, err := s.scoped(op, tenantID)
	if err != nil {
		return nil, err
	}

	q := db.Where("tenant_id = ?", tenantID)
	if !includeCompleted {
		q = q.Where("completed = ?", false)
	}

	var reminders []model.Reminder
	if err := q.Order("due_at").Find(&reminders).Error; err != nil {
		return nil, translate(op, "reminder", err)
	}
	return reminders, nil
}
