package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equipment-rental/internal/queue"
	"github.com/iliyamo/equipment-rental/internal/repository"
	"github.com/iliyamo/equipment-rental/internal/reservation"
	queue_publisher "github.com/iliyamo/equipment-rental/internal/service"
)

// ReservationHandler exposes the batch commit entry point.  It binds
// and validates the wire request, verifies project references, then
// hands the batch to the reservation coordinator — the only component
// allowed to mutate the capacity ledger.
type ReservationHandler struct {
	Coordinator   *reservation.Coordinator
	ProjectRepo   *repository.ProjectRepo   // project registry (foreign key checks)
	EquipmentRepo *repository.EquipmentRepo // event enrichment only
	BookingRepo   *repository.BookingRepo   // event enrichment only
	MaxBatchLines int
}

// NewReservationHandler constructs a ReservationHandler.  All
// dependencies must be non-nil.
func NewReservationHandler(coord *reservation.Coordinator, projectRepo *repository.ProjectRepo, equipmentRepo *repository.EquipmentRepo, bookingRepo *repository.BookingRepo, maxBatchLines int) *ReservationHandler {
	if coord == nil || projectRepo == nil || equipmentRepo == nil || bookingRepo == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	if maxBatchLines < 1 {
		maxBatchLines = 50
	}
	return &ReservationHandler{
		Coordinator:   coord,
		ProjectRepo:   projectRepo,
		EquipmentRepo: equipmentRepo,
		BookingRepo:   bookingRepo,
		MaxBatchLines: maxBatchLines,
	}
}

// requestLine is the wire format of one batch line.
type requestLine struct {
	EquipmentID      uint64 `json:"equipment_id"`
	ProjectID        uint64 `json:"project_id"`
	Quantity         int    `json:"quantity"`
	From             string `json:"from"`
	To               string `json:"to"`
	ExcludeBookingID uint64 `json:"exclude_booking_id,omitempty"`
}

// commitRequest is the wire format of POST /v1/reservations.
type commitRequest struct {
	Policy   string        `json:"policy"`
	Requests []requestLine `json:"requests"`
}

// outcomeJSON is the wire format of one per-line outcome.
type outcomeJSON struct {
	EquipmentID uint64         `json:"equipment_id"`
	ProjectID   uint64         `json:"project_id"`
	Quantity    int            `json:"quantity"`
	From        string         `json:"from"`
	To          string         `json:"to"`
	Status      string         `json:"status"`
	BookingID   uint64         `json:"booking_id,omitempty"`
	Conflicts   []conflictJSON `json:"conflicts,omitempty"`
	Reason      string         `json:"reason,omitempty"`
}

// Commit handles POST /v1/reservations.  The body carries the batch
// policy (ALL_OR_NOTHING or BEST_EFFORT) and an ordered list of request
// lines.  The response always reports one outcome per line in the
// submitted order; rejection with a conflict report is a normal outcome
// and still returns HTTP 200.
func (h *ReservationHandler) Commit(c echo.Context) error {
	var body commitRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Requests) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "requests is required"})
	}
	if len(body.Requests) > h.MaxBatchLines {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "too many request lines"})
	}
	policy := reservation.Policy(body.Policy)
	if policy != reservation.PolicyAllOrNothing && policy != reservation.PolicyBestEffort {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "policy must be ALL_OR_NOTHING or BEST_EFFORT"})
	}

	ctx := c.Request().Context()

	// Verify project references up front.  The coordinator assumes
	// valid project IDs; this handler is the upstream that guarantees
	// it.  A bad reference fails the whole batch before any lock.
	checked := make(map[uint64]bool)
	for _, line := range body.Requests {
		if line.ProjectID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "project_id is required"})
		}
		if checked[line.ProjectID] {
			continue
		}
		ok, err := h.ProjectRepo.Exists(ctx, line.ProjectID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if !ok {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "unknown project", "project_id": line.ProjectID})
		}
		checked[line.ProjectID] = true
	}

	requests := make([]reservation.Request, 0, len(body.Requests))
	for _, line := range body.Requests {
		req := reservation.Request{
			EquipmentID:      line.EquipmentID,
			ProjectID:        line.ProjectID,
			Quantity:         line.Quantity,
			ExcludeBookingID: line.ExcludeBookingID,
		}
		// Malformed dates become a zero range; the coordinator reports
		// the line as failed with ErrInvalidRange without touching the
		// ledger, matching its treatment of bad quantities.
		if rng, err := parseRange(line.From, line.To); err == nil {
			req.Range = rng
		}
		requests = append(requests, req)
	}

	outcomes, err := h.Coordinator.CommitBatch(ctx, requests, policy)
	if err != nil {
		if errors.Is(err, reservation.ErrInvalidPolicy) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "batch processing failed"})
	}

	results := make([]outcomeJSON, 0, len(outcomes))
	for i, out := range outcomes {
		line := body.Requests[i]
		oj := outcomeJSON{
			EquipmentID: line.EquipmentID,
			ProjectID:   line.ProjectID,
			Quantity:    line.Quantity,
			From:        line.From,
			To:          line.To,
			Status:      string(out.Status),
		}
		switch out.Status {
		case reservation.StatusAccepted:
			oj.BookingID = out.BookingID
			h.publishCommitted(c, out.BookingID)
		case reservation.StatusRejected:
			oj.Conflicts = conflictsToJSON(out.Conflicts)
		case reservation.StatusFailed:
			if out.Err != nil {
				oj.Reason = out.Err.Error()
			}
		}
		results = append(results, oj)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"policy":   string(policy),
		"outcomes": results,
	})
}

// publishCommitted loads the committed booking and emits its event.
// Event delivery is best-effort; failures are logged and never affect
// the commit outcome.
func (h *ReservationHandler) publishCommitted(c echo.Context, bookingID uint64) {
	ctx := c.Request().Context()
	b, err := h.BookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		log.Printf("reservation: load booking %d for event failed: %v", bookingID, err)
		return
	}
	name := ""
	if item, err := h.EquipmentRepo.GetByID(ctx, b.EquipmentID); err == nil {
		name = item.Name
	}
	ev := queue.BookingCommittedEvent{
		BookingID:      b.ID,
		EquipmentID:    b.EquipmentID,
		EquipmentName:  name,
		ProjectID:      b.ProjectID,
		Quantity:       b.Quantity,
		StartDate:      b.StartDate.Format(dateLayout),
		EndDate:        b.EndDate.Format(dateLayout),
		State:          b.State,
		DailyRateCents: b.DailyRateCents,
		TotalCents:     b.TotalCents,
		CommittedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := queue_publisher.PublishBookingCommitted(ctx, ev); err != nil {
		log.Printf("reservation: publish committed event for booking %d failed: %v", b.ID, err)
	}
}
