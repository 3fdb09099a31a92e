package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/pablodma/homeAssistant-backend/internal/middleware"
	"github.com/pablodma/homeAssistant-backend/internal/store"
	"github.com/pablodma/homeAssistant-backend/pkg/logger"
	"github.com/pablodma/homeAssistant-backend/prometheus"
)

// ReportQualityIssue handles POST /api/admin/quality/issues
func (h *Handler) ReportQualityIssue(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		IssueType     string `json:"issue_type"`
		IssueCategory string `json:"issue_category"`
		Severity      string `json:"severity"`
		AgentName     string `json:"agent_name"`
		ToolName      string `json:"tool_name"`
		UserPhone     string `json:"user_phone"`
		MessageIn     string `json:"message_in"`
		MessageOut    string `json:"message_out"`
		ErrorCode     string `json:"error_code"`
		ErrorMessage  string `json:"error_message"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse quality issue request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	in := store.QualityIssueInput{
		IssueType:     req.IssueType,
		IssueCategory: req.IssueCategory,
		Severity:      req.Severity,
		AgentName:     req.AgentName,
		ToolName:      req.ToolName,
		UserPhone:     req.UserPhone,
		MessageIn:     req.MessageIn,
		MessageOut:    req.MessageOut,
		ErrorCode:     req.ErrorCode,
		ErrorMessage:  req.ErrorMessage,
		CorrelationID: middleware.CorrelationID(c),
	}
	if tid, ok := tenantID(c); ok {
		in.TenantID = &tid
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	issue, err := h.store.ReportQualityIssue(in)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordQualityIssue(issue.IssueType, issue.AgentName)
	return c.JSON(http.StatusCreated, issue)
}

// ListOpenQualityIssues handles GET /api/admin/quality/issues
func (h *Handler) ListOpenQualityIssues(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	defer prometheus.TrackDBOperation("query")(time.Now())
	issues, err := h.store.ListOpenQualityIssues(c.QueryParam("agent"), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, issues)
}

// ResolveQualityIssue handles PUT /api/admin/quality/issues/:id/resolve
func (h *Handler) ResolveQualityIssue(c echo.Context) error {
	log := logger.FromEcho(c)

	issueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid issue id"})
	}

	var req struct {
		ResolvedBy string `json:"resolved_by"`
		Notes      string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse resolution request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.store.ResolveQualityIssue(issueID, req.ResolvedBy, req.Notes); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "resolved"})
}

// StartReviewCycle handles POST /api/admin/quality/reviews
func (h *Handler) StartReviewCycle(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		AgentName          string     `json:"agent_name"`
		TriggeredByIssueID *uuid.UUID `json:"triggered_by_issue_id,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse review cycle request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	cycle, err := h.store.StartReviewCycle(req.AgentName, req.TriggeredByIssueID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, cycle)
}

// CompleteReviewCycle handles PUT /api/admin/quality/reviews/:id/complete
func (h *Handler) CompleteReviewCycle(c echo.Context) error {
	log := logger.FromEcho(c)

	cycleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cycle id"})
	}

	var req struct {
		Status  string `json:"status"`
		Summary string `json:"summary"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse cycle completion request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.store.CompleteReviewCycle(cycleID, req.Status, req.Summary); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": req.Status})
}

// CreatePromptRevision handles POST /api/admin/quality/revisions
func (h *Handler) CreatePromptRevision(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		ReviewCycleID     *uuid.UUID `json:"review_cycle_id,omitempty"`
		AgentName         string     `json:"agent_name"`
		OriginalPrompt    string     `json:"original_prompt"`
		ImprovedPrompt    string     `json:"improved_prompt"`
		ImprovementReason string     `json:"improvement_reason"`
		CommitRef         string     `json:"commit_ref"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse prompt revision request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	revision, err := h.store.CreatePromptRevision(store.PromptRevisionInput{
		ReviewCycleID:     req.ReviewCycleID,
		AgentName:         req.AgentName,
		OriginalPrompt:    req.OriginalPrompt,
		ImprovedPrompt:    req.ImprovedPrompt,
		ImprovementReason: req.ImprovementReason,
		CommitRef:         req.CommitRef,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, revision)
}

// RollbackPromptRevision handles PUT /api/admin/quality/revisions/:id/rollback
func (h *Handler) RollbackPromptRevision(c echo.Context) error {
	log := logger.FromEcho(c)

	revisionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid revision id"})
	}

	var req struct {
		RolledBackBy string `json:"rolled_back_by"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse rollback request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.store.RollbackPromptRevision(revisionID, req.RolledBackBy); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "rolled_back"})
}

// ListPromptRevisions handles GET /api/admin/quality/revisions
func (h *Handler) ListPromptRevisions(c echo.Context) error {
	agent := c.QueryParam("agent")
	if agent == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "agent is required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	revisions, err := h.store.ListPromptRevisions(agent)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, revisions)
}

// PublishAgentPrompt handles POST /api/admin/quality/prompts
func (h *Handler) PublishAgentPrompt(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		AgentName     string `json:"agent_name"`
		PromptContent string `json:"prompt_content"`
		CreatedBy     string `json:"created_by"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse prompt publication request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	prompt, err := h.store.PublishAgentPrompt(req.AgentName, req.PromptContent, req.CreatedBy)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, prompt)
}

// GetActivePrompt handles GET /api/admin/quality/prompts/:agent
func (h *Handler) GetActivePrompt(c echo.Context) error {
	defer prometheus.TrackDBOperation("query")(time.Now())
	prompt, err := h.store.GetActivePrompt(c.Param("agent"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, prompt)
}

// ListAuditByCorrelation handles GET /api/admin/audit/:correlation_id
func (h *Handler) ListAuditByCorrelation(c echo.Context) error {
	defer prometheus.TrackDBOperation("query")(time.Now())
	entries, err := h.store.ListAuditByCorrelation(c.Param("correlation_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

// ListDeadOperations handles GET /api/admin/operations/dead
func (h *Handler) ListDeadOperations(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	defer prometheus.TrackDBOperation("query")(time.Now())
	rows, err := h.store.ListDeadOperations(limit)
	if err != nil {
		return respondError(c, err)
	}
	prometheus.UpdateDeadOperations(len(rows))
	return c.JSON(http.StatusOK, rows)
}

// RequeueDeadOperation handles PUT /api/admin/operations/:id/requeue
func (h *Handler) RequeueDeadOperation(c echo.Context) error {
	operationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid operation id"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.store.RequeueDeadOperation(operationID); err != nil {
		return respondError(c, err)
	}
	prometheus.RecordRetryTransition("requeued")
	return c.JSON(http.StatusOK, echo.Map{"status": "requeued"})
}
