package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Quality issue types. Hard errors are technical failures; soft errors
// are LLM-quality defects flagged by the review process.
const (
	IssueHardError = "hard_error"
	IssueSoftError = "soft_error"
)

// QualityIssue is one observed defect, keyed to the correlation id of the
// request that produced it.
type QualityIssue struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID        *uuid.UUID `json:"tenant_id,omitempty" gorm:"type:uuid;index"`
	IssueType       string     `json:"issue_type" gorm:"type:varchar(20);not null;index"`
	IssueCategory   string     `json:"issue_category" gorm:"type:varchar(50);index"`
	Severity        string     `json:"severity" gorm:"type:varchar(20);index"`
	AgentName       string     `json:"agent_name" gorm:"type:varchar(100);index"`
	ToolName        string     `json:"tool_name" gorm:"type:varchar(100)"`
	UserPhone       string     `json:"user_phone" gorm:"type:varchar(30)"`
	MessageIn       string     `json:"message_in" gorm:"type:text"`
	MessageOut      string     `json:"message_out" gorm:"type:text"`
	ErrorCode       string     `json:"error_code" gorm:"type:varchar(50)"`
	ErrorMessage    string     `json:"error_message" gorm:"type:text"`
	CorrelationID   string     `json:"correlation_id" gorm:"type:varchar(100);index"`
	IsResolved      bool       `json:"is_resolved" gorm:"default:false;index"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy      string     `json:"resolved_by" gorm:"type:varchar(100)"`
	ResolutionNotes string     `json:"resolution_notes" gorm:"type:text"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (q *QualityIssue) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// Review cycle statuses.
const (
	ReviewRunning   = "running"
	ReviewCompleted = "completed"
	ReviewFailed    = "failed"
)

// ReviewCycle is one run of the continuous-improvement loop, usually
// motivated by a quality issue.
type ReviewCycle struct {
	ID                 uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TriggeredByIssueID *uuid.UUID `json:"triggered_by_issue_id,omitempty" gorm:"type:uuid;index"`
	AgentName          string     `json:"agent_name" gorm:"type:varchar(100);not null;index"`
	Status             string     `json:"status" gorm:"type:varchar(20);not null;default:'running'"`
	Summary            string     `json:"summary" gorm:"type:text"`
	StartedAt          time.Time  `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

func (r *ReviewCycle) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	return nil
}

// PromptRevision is a before/after prompt change produced by a review
// cycle. Rollback appends the rolled-back fields exactly once and never
// touches the content fields: history is preserved, not rewritten.
type PromptRevision struct {
	ID                uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	ReviewCycleID     *uuid.UUID `json:"review_cycle_id,omitempty" gorm:"type:uuid;index"`
	AgentName         string     `json:"agent_name" gorm:"type:varchar(100);not null;index"`
	OriginalPrompt    string     `json:"original_prompt" gorm:"type:text;not null"`
	ImprovedPrompt    string     `json:"improved_prompt" gorm:"type:text;not null"`
	ImprovementReason string     `json:"improvement_reason" gorm:"type:text"`
	CommitRef         string     `json:"commit_ref" gorm:"type:varchar(100)"`
	IsRolledBack      bool       `json:"is_rolled_back" gorm:"default:false"`
	RolledBackAt      *time.Time `json:"rolled_back_at,omitempty"`
	RolledBackBy      string     `json:"rolled_back_by" gorm:"type:varchar(100)"`
	CreatedAt         time.Time  `json:"created_at"`
}

func (p *PromptRevision) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// AgentPrompt is the versioned active prompt per agent. Creating a new
// version deactivates the previous one in the same transaction.
type AgentPrompt struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	AgentName     string    `json:"agent_name" gorm:"type:varchar(100);not null;index"`
	PromptContent string    `json:"prompt_content" gorm:"type:text;not null"`
	Version       int       `json:"version" gorm:"not null"`
	IsActive      bool      `json:"is_active" gorm:"default:true"`
	CreatedBy     string    `json:"created_by" gorm:"type:varchar(100)"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (a *AgentPrompt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
