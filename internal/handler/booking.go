package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equipment-rental/internal/booking"
	"github.com/iliyamo/equipment-rental/internal/queue"
	"github.com/iliyamo/equipment-rental/internal/repository"
	queue_publisher "github.com/iliyamo/equipment-rental/internal/service"
)

// BookingHandler exposes booking lifecycle operations.  Transitions run
// inside a transaction holding the booking row lock so two concurrent
// transitions of the same booking serialize; moving into a terminal
// state releases capacity simply by falling out of the ledger's
// non-terminal reads in the same transaction.
type BookingHandler struct {
	BookingRepo *repository.BookingRepo
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(bookingRepo *repository.BookingRepo) *BookingHandler {
	if bookingRepo == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{BookingRepo: bookingRepo}
}

// Transition handles POST /v1/bookings/:id/transition.  The body must
// contain {"target_state": "..."}.  Guarded by the state machine:
// terminal states accept no transitions and unknown states are
// rejected, in both cases without mutating the row.
func (h *BookingHandler) Transition(c echo.Context) error {
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body struct {
		TargetState string `json:"target_state"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !booking.Known(body.TargetState) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown target state"})
	}

	ctx := c.Request().Context()
	tx, err := h.BookingRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := h.BookingRepo.GetByIDForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := booking.Validate(b.State, body.TargetState); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "invalid transition",
			"from":  b.State,
			"to":    body.TargetState,
		})
	}
	if err := h.BookingRepo.UpdateStateTx(ctx, tx, bookingID, body.TargetState); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update state"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	ev := queue.BookingTransitionedEvent{
		BookingID:   b.ID,
		EquipmentID: b.EquipmentID,
		FromState:   b.State,
		ToState:     body.TargetState,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := queue_publisher.PublishBookingTransitioned(ctx, ev); err != nil {
		log.Printf("booking: publish transition event for booking %d failed: %v", b.ID, err)
	}

	b.State = body.TargetState
	return c.JSON(http.StatusOK, bookingToJSON(*b))
}

// Get handles GET /v1/bookings/:id and returns a single booking.
func (h *BookingHandler) Get(c echo.Context) error {
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.BookingRepo.GetByID(c.Request().Context(), bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, bookingToJSON(*b))
}
