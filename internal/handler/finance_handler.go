package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pablodma/homeAssistant-backend/internal/store"
	"github.com/pablodma/homeAssistant-backend/pkg/logger"
	"github.com/pablodma/homeAssistant-backend/prometheus"
)

// CreateBudgetCategory handles POST /api/finance/categories
func (h *Handler) CreateBudgetCategory(c echo.Context) error {
	log := logger.FromEcho(c)

	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	var req struct {
		Name         string          `json:"name"`
		MonthlyLimit decimal.Decimal `json:"monthly_limit"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse category request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	category, err := h.store.CreateBudgetCategory(tid, req.Name, req.MonthlyLimit, userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, category)
}

// ListBudgetCategories handles GET /api/finance/categories
func (h *Handler) ListBudgetCategories(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	categories, err := h.store.ListBudgetCategories(tid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, categories)
}

// RegisterExpense handles POST /api/finance/expenses
func (h *Handler) RegisterExpense(c echo.Context) error {
	log := logger.FromEcho(c)

	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	var req struct {
		Amount         decimal.Decimal `json:"amount"`
		CategoryID     *uuid.UUID      `json:"category_id,omitempty"`
		Description    string          `json:"description"`
		ExpenseDate    *time.Time      `json:"expense_date,omitempty"`
		IdempotencyKey *string         `json:"idempotency_key,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse expense request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	in := store.ExpenseInput{
		Amount:         req.Amount,
		CategoryID:     req.CategoryID,
		Description:    req.Description,
		IdempotencyKey: req.IdempotencyKey,
		CreatedBy:      userID(c),
	}
	if req.ExpenseDate != nil {
		in.ExpenseDate = *req.ExpenseDate
	}
	if key := c.Request().Header.Get("Idempotency-Key"); key != "" && in.IdempotencyKey == nil {
		in.IdempotencyKey = &key
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	expense, replayed, err := h.store.RegisterExpense(tid, in)
	if err != nil {
		return respondError(c, err)
	}
	if replayed {
		prometheus.RecordIdempotencyReplay()
		return c.JSON(http.StatusOK, expense)
	}
	return c.JSON(http.StatusCreated, expense)
}

// ListExpenses handles GET /api/finance/expenses
func (h *Handler) ListExpenses(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	var filter store.ExpenseFilter
	if v := c.QueryParam("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.From = &t
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.To = &t
		}
	}
	if v := c.QueryParam("category_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.CategoryID = &id
		}
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	expenses, err := h.store.ListExpenses(tid, filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, expenses)
}
