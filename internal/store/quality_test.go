package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablodma/homeAssistant-backend/internal/model"
)

func TestResolveQualityIssueOnce(t *testing.T) {
	s := newTestStore(t)

	issue, err := s.ReportQualityIssue(QualityIssueInput{
		IssueType:     model.IssueHardError,
		AgentName:     "finanzas",
		ErrorCode:     "tool_timeout",
		CorrelationID: "corr-1",
	})
	require.NoError(t, err)
	assert.False(t, issue.IsResolved)

	require.NoError(t, s.ResolveQualityIssue(issue.ID, "pablo", "fixed upstream"))

	// The first resolution stands; a second attempt conflicts.
	err = s.ResolveQualityIssue(issue.ID, "otro", "different notes")
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	var row model.QualityIssue
	require.NoError(t, s.db.First(&row, "id = ?", issue.ID).Error)
	assert.Equal(t, "pablo", row.ResolvedBy)
	assert.Equal(t, "fixed upstream", row.ResolutionNotes)
}

func TestListOpenQualityIssues(t *testing.T) {
	s := newTestStore(t)

	a, err := s.ReportQualityIssue(QualityIssueInput{IssueType: model.IssueHardError, AgentName: "finanzas"})
	require.NoError(t, err)
	_, err = s.ReportQualityIssue(QualityIssueInput{IssueType: model.IssueSoftError, AgentName: "calendario"})
	require.NoError(t, err)

	all, err := s.ListOpenQualityIssues("", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byAgent, err := s.ListOpenQualityIssues("finanzas", 0)
	require.NoError(t, err)
	require.Len(t, byAgent, 1)
	assert.Equal(t, a.ID, byAgent[0].ID)

	require.NoError(t, s.ResolveQualityIssue(a.ID, "pablo", ""))
	open, err := s.ListOpenQualityIssues("", 0)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestReviewCycleLifecycle(t *testing.T) {
	s := newTestStore(t)

	issue, err := s.ReportQualityIssue(QualityIssueInput{IssueType: model.IssueSoftError, AgentName: "finanzas"})
	require.NoError(t, err)

	cycle, err := s.StartReviewCycle("finanzas", &issue.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewRunning, cycle.Status)

	require.NoError(t, s.CompleteReviewCycle(cycle.ID, model.ReviewCompleted, "prompt tightened"))

	// A closed cycle cannot be closed again.
	err = s.CompleteReviewCycle(cycle.ID, model.ReviewFailed, "")
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestRollbackPromptRevisionAppendsOnce(t *testing.T) {
	s := newTestStore(t)

	revision, err := s.CreatePromptRevision(PromptRevisionInput{
		AgentName:         "finanzas",
		OriginalPrompt:    "you are a finance assistant",
		ImprovedPrompt:    "you are a careful finance assistant",
		ImprovementReason: "reduce hallucinated amounts",
		CommitRef:         "abc123",
	})
	require.NoError(t, err)

	require.NoError(t, s.RollbackPromptRevision(revision.ID, "pablo"))

	// Rollback is recorded once; a second rollback conflicts.
	err = s.RollbackPromptRevision(revision.ID, "otro")
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	// Content fields are never rewritten by rollback.
	var row model.PromptRevision
	require.NoError(t, s.db.First(&row, "id = ?", revision.ID).Error)
	assert.True(t, row.IsRolledBack)
	assert.Equal(t, "pablo", row.RolledBackBy)
	assert.NotNil(t, row.RolledBackAt)
	assert.Equal(t, "you are a finance assistant", row.OriginalPrompt)
	assert.Equal(t, "you are a careful finance assistant", row.ImprovedPrompt)
}

func TestPublishAgentPromptVersioning(t *testing.T) {
	s := newTestStore(t)

	v1, err := s.PublishAgentPrompt("finanzas", "prompt v1", "pablo")
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Version)
	assert.True(t, v1.IsActive)

	v2, err := s.PublishAgentPrompt("finanzas", "prompt v2", "pablo")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)

	// Exactly one version is active.
	active, err := s.GetActivePrompt("finanzas")
	require.NoError(t, err)
	assert.Equal(t, v2.ID, active.ID)

	var activeCount int64
	require.NoError(t, s.db.Model(&model.AgentPrompt{}).
		Where("agent_name = ? AND is_active = ?", "finanzas", true).
		Count(&activeCount).Error)
	assert.EqualValues(t, 1, activeCount)

	// Another agent versions independently.
	other, err := s.PublishAgentPrompt("calendario", "prompt", "pablo")
	require.NoError(t, err)
	assert.Equal(t, 1, other.Version)

	history, err := s.ListPromptVersions("finanzas")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Version)
}
