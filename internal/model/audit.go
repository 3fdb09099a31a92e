package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit entry statuses.
const (
	AuditSuccess = "success"
	AuditFailure = "failure"
)

// AuditLog is the append-only action trail. One external request produces
// one or more entries sharing a correlation id. Entries are write-once;
// no update or delete accessor exists.
type AuditLog struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID      *uuid.UUID `json:"tenant_id,omitempty" gorm:"type:uuid;index"`
	CorrelationID string     `json:"correlation_id" gorm:"type:varchar(100);not null;index"`
	Actor         string     `json:"actor" gorm:"type:varchar(100)"`
	Action        string     `json:"action" gorm:"type:varchar(100);not null;index"`
	EntityType    string     `json:"entity_type" gorm:"type:varchar(50)"`
	EntityID      *uuid.UUID `json:"entity_id,omitempty" gorm:"type:uuid"`
	InputPayload  JSON       `json:"input_payload,omitempty" gorm:"type:jsonb"`
	OutputPayload JSON       `json:"output_payload,omitempty" gorm:"type:jsonb"`
	Status        string     `json:"status" gorm:"type:varchar(20);not null"`
	DurationMS    int64      `json:"duration_ms" gorm:"column:duration_ms"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Failed operation statuses. Dead is terminal and requires manual
// intervention; dead rows are never purged automatically.
const (
	FailedOpPending    = "pending"
	FailedOpProcessing = "processing"
	FailedOpCompleted  = "completed"
	FailedOpDead       = "dead"
)

// FailedOperation is one entry in the bounded-retry dead-letter queue.
type FailedOperation struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID      *uuid.UUID `json:"tenant_id,omitempty" gorm:"type:uuid;index"`
	OperationType string     `json:"operation_type" gorm:"type:varchar(100);not null"`
	Payload       JSON       `json:"payload,omitempty" gorm:"type:jsonb"`
	ErrorMessage  string     `json:"error_message" gorm:"type:text"`
	CorrelationID string     `json:"correlation_id" gorm:"type:varchar(100);index"`
	RetryCount    int        `json:"retry_count" gorm:"not null;default:0"`
	MaxRetries    int        `json:"max_retries" gorm:"not null;default:5"`
	NextRetryAt   time.Time  `json:"next_retry_at" gorm:"not null;index"`
	Status        string     `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (f *FailedOperation) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// Idempotency claim statuses.
const (
	IdempotencyInFlight  = "in_flight"
	IdempotencyCompleted = "completed"
)

// IdempotencyRecord is the per-(tenant, key) claim that gives externally
// triggered mutations at-most-once effect.
type IdempotencyRecord struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID  `json:"tenant_id" gorm:"type:uuid;not null;index"`
	Key         string     `json:"key" gorm:"type:varchar(100);not null"`
	Status      string     `json:"status" gorm:"type:varchar(20);not null;default:'in_flight'"`
	Result      JSON       `json:"result,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (r *IdempotencyRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *IdempotencyRecord) OwnerTenantID() uuid.UUID { return r.TenantID }
