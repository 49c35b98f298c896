package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equipment-rental/internal/availability"
	"github.com/iliyamo/equipment-rental/internal/daterange"
	"github.com/iliyamo/equipment-rental/internal/repository"
)

// AvailabilityHandler answers read-only availability questions.  It is
// pure read: repeated calls with no intervening commits return the same
// answer, which is what makes the Redis response cache in front of it
// safe.
type AvailabilityHandler struct {
	EquipmentRepo *repository.EquipmentRepo // capacity and status flags
	BookingRepo   *repository.BookingRepo   // active bookings (capacity ledger reads)
}

// NewAvailabilityHandler constructs an AvailabilityHandler with the
// provided repositories.  All dependencies must be non-nil.
func NewAvailabilityHandler(equipmentRepo *repository.EquipmentRepo, bookingRepo *repository.BookingRepo) *AvailabilityHandler {
	if equipmentRepo == nil || bookingRepo == nil {
		panic("nil repository passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{EquipmentRepo: equipmentRepo, BookingRepo: bookingRepo}
}

// Check handles GET /v1/equipment/:id/availability.  Query parameters:
// from and to (YYYY-MM-DD, half-open), quantity (positive integer,
// default 1) and optional exclude_booking for edits.  It responds with
// the overall verdict and the conflicting sub-ranges when the request
// cannot be fully satisfied.
func (h *AvailabilityHandler) Check(c echo.Context) error {
	equipmentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || equipmentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid equipment id"})
	}
	rng, err := parseRange(c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date range"})
	}
	quantity := 1
	if s := c.QueryParam("quantity"); s != "" {
		quantity, err = strconv.Atoi(s)
		if err != nil || quantity < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid quantity"})
		}
	}
	var excludeID uint64
	if s := c.QueryParam("exclude_booking"); s != "" {
		excludeID, err = strconv.ParseUint(s, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exclude_booking"})
		}
	}

	ctx := c.Request().Context()
	item, err := h.EquipmentRepo.GetByID(ctx, equipmentID)
	if err != nil {
		if errors.Is(err, repository.ErrEquipmentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "equipment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	bookings, err := h.BookingRepo.ActiveOverlapping(ctx, equipmentID, rng)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	result, err := availability.Evaluate(availability.Request{
		Range:            rng,
		Quantity:         quantity,
		ExcludeBookingID: excludeID,
	}, item.Capacity(), bookings)
	if err != nil {
		// Inputs were validated above; an error here means a malformed
		// range slipped through binding.
		if errors.Is(err, daterange.ErrInvalidRange) || errors.Is(err, availability.ErrInvalidQuantity) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability evaluation failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"equipment_id": equipmentID,
		"from":         rng.Start.Format(dateLayout),
		"to":           rng.End.Format(dateLayout),
		"quantity":     quantity,
		"capacity":     item.Capacity(),
		"satisfiable":  result.Satisfiable,
		"conflicts":    conflictsToJSON(result.Conflicts),
	})
}
