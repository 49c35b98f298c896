package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equipment-rental/internal/booking"
	"github.com/iliyamo/equipment-rental/internal/model"
	"github.com/iliyamo/equipment-rental/internal/repository"
)

// EquipmentHandler exposes read-only equipment browsing plus the
// administrative status flag override.  Everything here is plumbing
// around the engine; the commit path never goes through this handler.
type EquipmentHandler struct {
	EquipmentRepo *repository.EquipmentRepo
	BookingRepo   *repository.BookingRepo
}

// NewEquipmentHandler constructs an EquipmentHandler.
func NewEquipmentHandler(equipmentRepo *repository.EquipmentRepo, bookingRepo *repository.BookingRepo) *EquipmentHandler {
	if equipmentRepo == nil || bookingRepo == nil {
		panic("nil repository passed to NewEquipmentHandler")
	}
	return &EquipmentHandler{EquipmentRepo: equipmentRepo, BookingRepo: bookingRepo}
}

// equipmentJSON is the wire representation of an equipment item.
type equipmentJSON struct {
	ID             uint64  `json:"id"`
	Name           string  `json:"name"`
	Category       *string `json:"category,omitempty"`
	IsSerialized   bool    `json:"is_serialized"`
	TotalQuantity  uint32  `json:"total_quantity"`
	DailyRateCents uint32  `json:"daily_rate_cents"`
	Status         string  `json:"status,omitempty"`
}

// List handles GET /v1/equipment and returns all equipment items.  The
// derived status is omitted here to keep the listing a single query;
// clients needing status fetch the item detail.
func (h *EquipmentHandler) List(c echo.Context) error {
	items, err := h.EquipmentRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]equipmentJSON, 0, len(items))
	for _, e := range items {
		out = append(out, equipmentJSON{
			ID:             e.ID,
			Name:           e.Name,
			Category:       e.Category,
			IsSerialized:   e.IsSerialized,
			TotalQuantity:  e.TotalQuantity,
			DailyRateCents: e.DailyRateCents,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"equipment": out})
}

// Get handles GET /v1/equipment/:id.  The response includes the derived
// current status: an override flag wins, otherwise RENTED while an
// ACTIVE booking covers today, otherwise AVAILABLE.
func (h *EquipmentHandler) Get(c echo.Context) error {
	equipmentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || equipmentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid equipment id"})
	}
	ctx := c.Request().Context()
	item, err := h.EquipmentRepo.GetByID(ctx, equipmentID)
	if err != nil {
		if errors.Is(err, repository.ErrEquipmentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "equipment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	active, err := h.BookingRepo.ActiveByEquipment(ctx, equipmentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, equipmentJSON{
		ID:             item.ID,
		Name:           item.Name,
		Category:       item.Category,
		IsSerialized:   item.IsSerialized,
		TotalQuantity:  item.TotalQuantity,
		DailyRateCents: item.DailyRateCents,
		Status:         booking.DeriveStatus(*item, active, time.Now()),
	})
}

// SetFlag handles PUT /v1/equipment/:id/flag, the administrative
// override that blocks new reservations (MAINTENANCE, BROKEN, RETIRED)
// or clears the block again.  Existing bookings are not touched.
func (h *EquipmentHandler) SetFlag(c echo.Context) error {
	equipmentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || equipmentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid equipment id"})
	}
	var body struct {
		Flag string `json:"flag"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	switch body.Flag {
	case model.FlagNone, model.FlagMaintenance, model.FlagBroken, model.FlagRetired:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown flag"})
	}
	if err := h.EquipmentRepo.SetStatusFlag(c.Request().Context(), equipmentID, body.Flag); err != nil {
		if errors.Is(err, repository.ErrEquipmentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "equipment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": equipmentID, "flag": body.Flag})
}
