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

// AddShoppingItem handles POST /api/shopping/items
func (h *Handler) AddShoppingItem(c echo.Context) error {
	log := logger.FromEcho(c)

	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	var req struct {
		Name           string  `json:"name"`
		Quantity       int     `json:"quantity"`
		IdempotencyKey *string `json:"idempotency_key,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse shopping item request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	item, replayed, err := h.store.AddShoppingItem(tid, store.ShoppingItemInput{
		Name:           req.Name,
		Quantity:       req.Quantity,
		IdempotencyKey: req.IdempotencyKey,
		CreatedBy:      userID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	if replayed {
		prometheus.RecordIdempotencyReplay()
		return c.JSON(http.StatusOK, item)
	}
	return c.JSON(http.StatusCreated, item)
}

// MarkItemPurchased handles PUT /api/shopping/items/:id/purchase
func (h *Handler) MarkItemPurchased(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.store.MarkItemPurchased(tid, itemID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "purchased"})
}

// ListShoppingItems handles GET /api/shopping/items
func (h *Handler) ListShoppingItems(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	includePurchased := c.QueryParam("include_purchased") == "true"

	defer prometheus.TrackDBOperation("query")(time.Now())
	items, err := h.store.ListShoppingItems(tid, includePurchased)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// AddVehicle handles POST /api/vehicles
func (h *Handler) AddVehicle(c echo.Context) error {
	log := logger.FromEcho(c)

	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	var req struct {
		Name        string `json:"name"`
		PlateNumber string `json:"plate_number"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse vehicle request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	vehicle, err := h.store.AddVehicle(tid, req.Name, req.PlateNumber, userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, vehicle)
}

// AddVehicleService handles POST /api/vehicles/:id/services
func (h *Handler) AddVehicleService(c echo.Context) error {
	log := logger.FromEcho(c)

	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle id"})
	}

	var req struct {
		ServiceType string          `json:"service_type"`
		ServiceDate *time.Time      `json:"service_date,omitempty"`
		Cost        decimal.Decimal `json:"cost"`
		Notes       string          `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse vehicle service request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	in := store.VehicleServiceInput{
		VehicleID:   vehicleID,
		ServiceType: req.ServiceType,
		Cost:        req.Cost,
		Notes:       req.Notes,
		CreatedBy:   userID(c),
	}
	if req.ServiceDate != nil {
		in.ServiceDate = *req.ServiceDate
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	record, err := h.store.AddVehicleService(tid, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, record)
}

// ListVehicles handles GET /api/vehicles
func (h *Handler) ListVehicles(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	vehicles, err := h.store.ListVehicles(tid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, vehicles)
}
