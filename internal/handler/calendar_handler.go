package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/pablodma/homeAssistant-backend/internal/store"
	"github.com/pablodma/homeAssistant-backend/pkg/logger"
	"github.com/pablodma/homeAssistant-backend/prometheus"
)

// CreateEvent handles POST /api/calendar/events
func (h *Handler) CreateEvent(c echo.Context) error {
	log := logger.FromEcho(c)

	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	var req struct {
		Title          string     `json:"title"`
		Location       string     `json:"location"`
		StartsAt       time.Time  `json:"starts_at"`
		EndsAt         *time.Time `json:"ends_at,omitempty"`
		IdempotencyKey *string    `json:"idempotency_key,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse event request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	event, replayed, err := h.store.CreateEvent(tid, store.EventInput{
		Title:          req.Title,
		Location:       req.Location,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		IdempotencyKey: req.IdempotencyKey,
		CreatedBy:      userID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	if replayed {
		prometheus.RecordIdempotencyReplay()
		return c.JSON(http.StatusOK, event)
	}
	return c.JSON(http.StatusCreated, event)
}

// ListEvents handles GET /api/calendar/events
func (h *Handler) ListEvents(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	var from, to time.Time
	if v := c.QueryParam("from"); v != "" {
		from, _ = time.Parse(time.RFC3339, v)
	}
	if v := c.QueryParam("to"); v != "" {
		to, _ = time.Parse(time.RFC3339, v)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	events, err := h.store.ListEvents(tid, from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

// CreateReminder handles POST /api/calendar/reminders
func (h *Handler) CreateReminder(c echo.Context) error {
	log := logger.FromEcho(c)

	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	var req struct {
		Title          string    `json:"title"`
		DueAt          time.Time `json:"due_at"`
		IdempotencyKey *string   `json:"idempotency_key,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse reminder request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	reminder, replayed, err := h.store.CreateReminder(tid, store.ReminderInput{
		Title:          req.Title,
		DueAt:          req.DueAt,
		IdempotencyKey: req.IdempotencyKey,
		CreatedBy:      userID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	if replayed {
		prometheus.RecordIdempotencyReplay()
		return c.JSON(http.StatusOK, reminder)
	}
	return c.JSON(http.StatusCreated, reminder)
}

// CompleteReminder handles PUT /api/calendar/reminders/:id/complete
func (h *Handler) CompleteReminder(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	reminderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reminder id"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.store.CompleteReminder(tid, reminderID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "completed"})
}

// ListReminders handles GET /api/calendar/reminders
func (h *Handler) ListReminders(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	includeCompleted := c.QueryParam("include_completed") == "true"

	defer prometheus.TrackDBOperation("query")(time.Now())
	reminders, err := h.store.ListReminders(tid, includeCompleted)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, reminders)
}
