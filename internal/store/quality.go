package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

// QualityIssueInput is the payload for reporting an observed defect.
type QualityIssueInput struct {
	TenantID      *uuid.UUID
	IssueType     string
	IssueCategory string
	Severity      string
	AgentName     string
	ToolName      string
	UserPhone     string
	MessageIn     string
	MessageOut    string
	ErrorCode     string
	ErrorMessage  string
	CorrelationID string
}

// ReportQualityIssue records a hard or soft error for later review.
func (s *Store) ReportQualityIssue(in QualityIssueInput) (*model.QualityIssue, error) {
	const op = "store.ReportQualityIssue"

	switch in.IssueType {
	case model.IssueHardError, model.IssueSoftError:
	default:
		return nil, &ValidationError{Field: "issue_type", Reason: "unknown issue type"}
	}
	if in.AgentName == "" {
		return nil, &ValidationError{Field: "agent_name", Reason: "must not be empty"}
	}

	issue := model.QualityIssue{
		TenantID:      in.TenantID,
		IssueType:     in.IssueType,
		IssueCategory: in.IssueCategory,
		Severity:      in.Severity,
		AgentName:     in.AgentName,
		ToolName:      in.ToolName,
		UserPhone:     in.UserPhone,
		MessageIn:     in.MessageIn,
		MessageOut:    in.MessageOut,
		ErrorCode:     in.ErrorCode,
		ErrorMessage:  in.ErrorMessage,
		CorrelationID: in.CorrelationID,
	}
	if err := s.db.Create(&issue).Error; err != nil {
		return nil, translate(op, "quality issue", err)
	}
	return &issue, nil
}

// ResolveQualityIssue closes an issue once. Resolving an already resolved
// issue conflicts rather than overwriting the first resolution.
func (s *Store) ResolveQualityIssue(issueID uuid.UUID, resolvedBy, notes string) error {
	const op = "store.ResolveQualityIssue"

	if resolvedBy == "" {
		return &ValidationError{Field: "resolved_by", Reason: "must not be empty"}
	}

	now := time.Now()
	res := s.db.Model(&model.QualityIssue{}).
		Where("id = ? AND is_resolved = ?", issueID, false).
		Updates(map[string]interface{}{
			"is_resolved":      true,
			"resolved_at":      now,
			"resolved_by":      resolvedBy,
			"resolution_notes": notes,
		})
	if res.Error != nil {
		return translate(op, "quality issue", res.Error)
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := s.db.Model(&model.QualityIssue{}).Where("id = ?", issueID).Count(&n).Error; err != nil {
			return translate(op, "quality issue", err)
		}
		if n == 0 {
			return &NotFoundError{Entity: "quality issue"}
		}
		return &ConflictError{Entity: "quality issue", Reason: "already resolved"}
	}
	return nil
}

// ListOpenQualityIssues returns unresolved issues, optionally filtered by
// agent, newest first.
func (s *Store) ListOpenQualityIssues(agentName string, limit int) ([]model.QualityIssue, error) {
	const op = "store.ListOpenQualityIssues"

	q := s.db.Where("is_resolved = ?", false)
	if agentName != "" {
		q = q.Where("agent_name = ?", agentName)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var issues []model.QualityIssue
	if err := q.Order("created_at DESC").Find(&issues).Error; err != nil {
		return nil, translate(op, "quality issue", err)
	}
	return issues, nil
}

// StartReviewCycle opens a run of the improvement loop for an agent.
func (s *Store) StartReviewCycle(agentName string, triggeredByIssueID *uuid.UUID) (*model.ReviewCycle, error) {
	const op = "store.StartReviewCycle"

	if agentName == "" {
		return nil, &ValidationError{Field: "agent_name", Reason: "must not be empty"}
	}

	cycle := model.ReviewCycle{
		AgentName:          agentName,
		TriggeredByIssueID: triggeredByIssueID,
		Status:             model.ReviewRunning,
	}
	if err := s.db.Create(&cycle).Error; err != nil {
		return nil, translate(op, "review cycle", err)
	}
	return &cycle, nil
}

// CompleteReviewCycle closes a running cycle as completed or failed.
func (s *Store) CompleteReviewCycle(cycleID uuid.UUID, status, summary string) error {
	const op = "store.CompleteReviewCycle"

	if status != model.ReviewCompleted && status != model.ReviewFailed {
		return &ValidationError{Field: "status", Reason: "must be completed or failed"}
	}

	now := time.Now()
	res := s.db.Model(&model.ReviewCycle{}).
		Where("id = ? AND status = ?", cycleID, model.ReviewRunning).
		Updates(map[string]interface{}{
			"status":       status,
			"summary":      summary,
			"completed_at": now,
		})
	if res.Error != nil {
		return translate(op, "review cycle", res.Error)
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := s.db.Model(&model.ReviewCycle{}).Where("id = ?", cycleID).Count(&n).Error; err != nil {
			return translate(op, "review cycle", err)
		}
		if n == 0 {
			return &NotFoundError{Entity: "review cycle"}
		}
		return &ConflictError{Entity: "review cycle", Reason: "not running"}
	}
	return nil
}

// PromptRevisionInput is the payload for recording a prompt change.
type PromptRevisionInput struct {
	ReviewCycleID     *uuid.UUID
	AgentName         string
	OriginalPrompt    string
	ImprovedPrompt    string
	ImprovementReason string
	CommitRef         string
}

// CreatePromptRevision appends a before/after prompt change to the audit
// chain.
func (s *Store) CreatePromptRevision(in PromptRevisionInput) (*model.PromptRevision, error) {
	const op = "store.CreatePromptRevision"

	if in.AgentName == "" {
		return nil, &ValidationError{Field: "agent_name", Reason: "must not be empty"}
	}
	if in.OriginalPrompt == "" || in.ImprovedPrompt == "" {
		return nil, &ValidationError{Field: "prompt", Reason: "original and improved prompts are required"}
	}

	revision := model.PromptRevision{
		ReviewCycleID:     in.ReviewCycleID,
		AgentName:         in.AgentName,
		OriginalPrompt:    in.OriginalPrompt,
		ImprovedPrompt:    in.ImprovedPrompt,
		ImprovementReason: in.ImprovementReason,
		CommitRef:         in.CommitRef,
	}
	if err := s.db.Create(&revision).Error; err != nil {
		return nil, translate(op, "prompt revision", err)
	}
	return &revision, nil
}

// RollbackPromptRevision marks a revision rolled back, exactly once. The
// revision's content fields are never modified: rollback appends state,
// it does not rewrite history. A second rollback conflicts.
func (s *Store) RollbackPromptRevision(revisionID uuid.UUID, rolledBackBy string) error {
	const op = "store.RollbackPromptRevision"

	if rolledBackBy == "" {
		return &ValidationError{Field: "rolled_back_by", Reason: "must not be empty"}
	}

	now := time.Now()
	res := s.db.Model(&model.PromptRevision{}).
		Where("id = ? AND is_rolled_back = ?", revisionID, false).
		Updates(map[string]interface{}{
			"is_rolled_back": true,
			"rolled_back_at": now,
			"rolled_back_by": rolledBackBy,
		})
	if res.Error != nil {
		return translate(op, "prompt revision", res.Error)
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := s.db.Model(&model.PromptRevision{}).Where("id = ?", revisionID).Count(&n).Error; err != nil {
			return translate(op, "prompt revision", err)
		}
		if n == 0 {
			return &NotFoundError{Entity: "prompt revision"}
		}
		return &ConflictError{Entity: "prompt revision", Reason: "already rolled back"}
	}
	return nil
}

// ListPromptRevisions returns an agent's revision history, newest first.
func (s *Store) ListPromptRevisions(agentName string) ([]model.PromptRevision, error) {
	const op = "store.ListPromptRevisions"

	var revisions []model.PromptRevision
	if err := s.db.Where("agent_name = ?", agentName).
		Order("created_at DESC").Find(&revisions).Error; err != nil {
		return nil, translate(op, "prompt revision", err)
	}
	return revisions, nil
}

// PublishAgentPrompt activates new prompt content for an agent. The
// version number advances monotonically and the previous version is
// deactivated in the same transaction, so exactly one version is active.
func (s *Store) PublishAgentPrompt(agentName, content, createdBy string) (*model.AgentPrompt, error) {
	const op = "store.PublishAgentPrompt"

	if agentName == "" {
		return nil, &ValidationError{Field: "agent_name", Reason: "must not be empty"}
	}
	if content == "" {
		return nil, &ValidationError{Field: "prompt_content", Reason: "must not be empty"}
	}

	var prompt model.AgentPrompt
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var latest model.AgentPrompt
		version := 1
		err := tx.Where("agent_name = ?", agentName).
			Order("version DESC").First(&latest).Error
		if err == nil {
			version = latest.Version + 1
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Model(&model.AgentPrompt{}).
			Where("agent_name = ? AND is_active = ?", agentName, true).
			Update("is_active", false).Error; err != nil {
			return err
		}

		prompt = model.AgentPrompt{
			AgentName:     agentName,
			PromptContent: content,
			Version:       version,
			IsActive:      true,
			CreatedBy:     createdBy,
		}
		return tx.Create(&prompt).Error
	})
	if err != nil {
		return nil, translate(op, "agent prompt", err)
	}
	return &prompt, nil
}

// GetActivePrompt returns the agent's live prompt.
func (s *Store) GetActivePrompt(agentName string) (*model.AgentPrompt, error) {
	const op = "store.GetActivePrompt"

	var prompt model.AgentPrompt
	err := s.db.Where("agent_name = ? AND is_active = ?", agentName, true).
		First(&prompt).Error
	if err != nil {
		return nil, translate(op, "agent prompt", err)
	}
	return &prompt, nil
}

// ListPromptVersions returns the full version history for an agent.
func (s *Store) ListPromptVersions(agentName string) ([]model.AgentPrompt, error) {
	const op = "store.ListPromptVersions"

	var prompts []model.AgentPrompt
	if err := s.db.Where("agent_name = ?", agentName).
		Order("version DESC").Find(&prompts).Error; err != nil {
		return nil, translate(op, "agent prompt", err)
	}
	return prompts, nil
}
