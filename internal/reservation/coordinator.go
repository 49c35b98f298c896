// Package reservation orchestrates cart-style batch booking requests.
// The Coordinator is the single write gate of the capacity ledger:
// every booking that consumes capacity is created here, inside a
// per-equipment lock and a database transaction holding the equipment
// row lock, so concurrent batches can never jointly overcommit.
package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/equipment-rental/internal/availability"
	"github.com/iliyamo/equipment-rental/internal/booking"
	"github.com/iliyamo/equipment-rental/internal/daterange"
	"github.com/iliyamo/equipment-rental/internal/model"
	"github.com/iliyamo/equipment-rental/internal/pricing"
)

// Policy selects how a batch reacts to an infeasible line.
type Policy string

const (
	// PolicyAllOrNothing rejects the whole batch when any line cannot
	// be satisfied; nothing is persisted.
	PolicyAllOrNothing Policy = "ALL_OR_NOTHING"
	// PolicyBestEffort commits each satisfiable line immediately and
	// reports conflicts for the rest; later lines see earlier commits.
	PolicyBestEffort Policy = "BEST_EFFORT"
)

// ErrInvalidPolicy is returned when the policy string is not one of the
// defined policies.
var ErrInvalidPolicy = errors.New("invalid batch policy")

// ErrBatchAborted marks lines that were individually fine but whose
// ALL_OR_NOTHING batch was rejected because a sibling line failed.
var ErrBatchAborted = errors.New("batch aborted, no lines committed")

// ErrInvalidQuantity is surfaced for malformed quantities before any
// lock is taken or the ledger is read.
var ErrInvalidQuantity = availability.ErrInvalidQuantity

// Request is one line of a batch: a quantity of one equipment item over
// a date range for a project.  ExcludeBookingID, when non-zero, removes
// an existing booking from the feasibility check so an edit does not
// conflict with itself.
type Request struct {
	EquipmentID      uint64
	ProjectID        uint64
	Quantity         int
	Range            daterange.Range
	ExcludeBookingID uint64
}

// Outcome statuses per batch line.
type Status string

const (
	// StatusAccepted means the line was committed; BookingID is set.
	StatusAccepted Status = "ACCEPTED"
	// StatusRejected means the line is infeasible; Conflicts is set.
	// Rejection is an expected business outcome, not an error.
	StatusRejected Status = "REJECTED"
	// StatusFailed means the line could not be processed (malformed
	// input, unknown equipment, lock timeout, aborted batch); Err is set.
	StatusFailed Status = "FAILED"
)

// Outcome reports what happened to one request of a batch.
type Outcome struct {
	Request   Request
	Status    Status
	BookingID uint64
	Conflicts []availability.Conflict
	Err       error
}

// Store is the transactional persistence contract the coordinator
// commits through.  The SQL implementation lives in the repository
// package; tests substitute an in-memory store.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one transaction against the booking store.  EquipmentForUpdate
// must hold an exclusive row lock on the equipment until Commit or
// Rollback, and reads inside the transaction must observe writes made
// earlier in the same transaction.
type Tx interface {
	EquipmentForUpdate(ctx context.Context, id uint64) (*model.EquipmentItem, error)
	ActiveOverlapping(ctx context.Context, equipmentID uint64, r daterange.Range) ([]model.Booking, error)
	CreateBooking(ctx context.Context, b *model.Booking) error
	Commit() error
	Rollback() error
}

// Coordinator validates, locks, evaluates and commits batch requests.
type Coordinator struct {
	store       Store
	locks       *LockRegistry
	quoter      pricing.Quoter
	lockTimeout time.Duration
}

// NewCoordinator wires a coordinator.  lockTimeout bounds the wait for
// each per-equipment lock.
func NewCoordinator(store Store, locks *LockRegistry, quoter pricing.Quoter, lockTimeout time.Duration) *Coordinator {
	if store == nil || locks == nil || quoter == nil {
		panic("nil dependency passed to NewCoordinator")
	}
	return &Coordinator{store: store, locks: locks, quoter: quoter, lockTimeout: lockTimeout}
}

// validate rejects malformed lines before any lock or IO.
func validate(req Request) error {
	if req.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if req.Range.Start.IsZero() || req.Range.End.IsZero() || !req.Range.Start.Before(req.Range.End) {
		return daterange.ErrInvalidRange
	}
	return nil
}

// CommitBatch processes the requests in submission order under the
// given policy and returns one outcome per request, in the same order.
// The returned error is non-nil only when the batch could not be
// processed at all (unknown policy); per-line problems are reported in
// the outcomes.
func (c *Coordinator) CommitBatch(ctx context.Context, requests []Request, policy Policy) ([]Outcome, error) {
	switch policy {
	case PolicyAllOrNothing, PolicyBestEffort:
	default:
		return nil, ErrInvalidPolicy
	}
	outcomes := make([]Outcome, len(requests))
	for i, req := range requests {
		outcomes[i] = Outcome{Request: req}
	}
	if len(requests) == 0 {
		return outcomes, nil
	}

	// Validate every line up front.  Under ALL_OR_NOTHING one bad line
	// sinks the batch before anything is locked.
	anyInvalid := false
	for i, req := range requests {
		if err := validate(req); err != nil {
			outcomes[i].Status = StatusFailed
			outcomes[i].Err = err
			anyInvalid = true
		}
	}
	if anyInvalid && policy == PolicyAllOrNothing {
		abortRemaining(outcomes, ErrBatchAborted)
		return outcomes, nil
	}

	// Take per-equipment locks in ascending ID order.
	ids := SortedIDs(requests)
	held := make([]uint64, 0, len(ids))
	lockFailed := make(map[uint64]error)
	defer func() {
		for _, id := range held {
			c.locks.Release(id)
		}
	}()
	for _, id := range ids {
		if err := c.locks.Acquire(ctx, id, c.lockTimeout); err != nil {
			if policy == PolicyAllOrNothing {
				failRemaining(outcomes, err)
				return outcomes, nil
			}
			lockFailed[id] = err
			continue
		}
		held = append(held, id)
	}

	if policy == PolicyAllOrNothing {
		c.commitAtomic(ctx, requests, outcomes)
		return outcomes, nil
	}
	c.commitBestEffort(ctx, requests, outcomes, lockFailed)
	return outcomes, nil
}

// commitAtomic evaluates every line inside a single transaction,
// creating speculative bookings as it goes so later lines see earlier
// ones, and commits only when all lines are satisfiable.
func (c *Coordinator) commitAtomic(ctx context.Context, requests []Request, outcomes []Outcome) {
	tx, err := c.store.Begin(ctx)
	if err != nil {
		failRemaining(outcomes, err)
		return
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for i, req := range requests {
		if err := c.commitLine(ctx, tx, req, &outcomes[i]); err != nil || outcomes[i].Status == StatusRejected {
			// One bad line rejects the whole batch: roll back and
			// mark every other line as aborted.
			for j := range outcomes {
				if j == i {
					continue
				}
				outcomes[j].Status = StatusFailed
				outcomes[j].BookingID = 0
				outcomes[j].Err = ErrBatchAborted
			}
			return
		}
	}
	if err := tx.Commit(); err != nil {
		failRemaining(outcomes, err)
		return
	}
	committed = true
}

// commitBestEffort runs one transaction per line so each satisfiable
// line is durably committed before the next is evaluated.  Cancellation
// between lines leaves already-committed lines in place.
func (c *Coordinator) commitBestEffort(ctx context.Context, requests []Request, outcomes []Outcome, lockFailed map[uint64]error) {
	for i, req := range requests {
		if outcomes[i].Status != "" { // failed validation
			continue
		}
		if err := ctx.Err(); err != nil {
			outcomes[i].Status = StatusFailed
			outcomes[i].Err = err
			continue
		}
		if err, ok := lockFailed[req.EquipmentID]; ok {
			outcomes[i].Status = StatusFailed
			outcomes[i].Err = err
			continue
		}
		tx, err := c.store.Begin(ctx)
		if err != nil {
			outcomes[i].Status = StatusFailed
			outcomes[i].Err = err
			continue
		}
		if err := c.commitLine(ctx, tx, req, &outcomes[i]); err != nil || outcomes[i].Status == StatusRejected {
			_ = tx.Rollback()
			continue
		}
		if err := tx.Commit(); err != nil {
			outcomes[i].Status = StatusFailed
			outcomes[i].BookingID = 0
			outcomes[i].Err = err
		}
	}
}

// commitLine evaluates one request inside tx and, when satisfiable,
// creates the pending booking.  It fills the outcome and returns a
// non-nil error only for failures (not for rejection).
func (c *Coordinator) commitLine(ctx context.Context, tx Tx, req Request, out *Outcome) error {
	item, err := tx.EquipmentForUpdate(ctx, req.EquipmentID)
	if err != nil {
		out.Status = StatusFailed
		out.Err = err
		return err
	}
	bookings, err := tx.ActiveOverlapping(ctx, req.EquipmentID, req.Range)
	if err != nil {
		out.Status = StatusFailed
		out.Err = err
		return err
	}
	result, err := availability.Evaluate(availability.Request{
		Range:            req.Range,
		Quantity:         req.Quantity,
		ExcludeBookingID: req.ExcludeBookingID,
	}, item.Capacity(), bookings)
	if err != nil {
		out.Status = StatusFailed
		out.Err = err
		return err
	}
	if !result.Satisfiable {
		out.Status = StatusRejected
		out.Conflicts = result.Conflicts
		return nil
	}
	quote := c.quoter.Quote(*item, req.Range, uint32(req.Quantity))
	b := &model.Booking{
		EquipmentID:    req.EquipmentID,
		ProjectID:      req.ProjectID,
		Quantity:       uint32(req.Quantity),
		StartDate:      req.Range.Start,
		EndDate:        req.Range.End,
		State:          booking.StatePending,
		DailyRateCents: quote.DailyCents,
		TotalCents:     quote.TotalCents,
	}
	if err := tx.CreateBooking(ctx, b); err != nil {
		out.Status = StatusFailed
		out.Err = err
		return err
	}
	out.Status = StatusAccepted
	out.BookingID = b.ID
	return nil
}

// abortRemaining marks every line without a status as aborted.
func abortRemaining(outcomes []Outcome, err error) {
	for i := range outcomes {
		if outcomes[i].Status == "" {
			outcomes[i].Status = StatusFailed
			outcomes[i].Err = err
		}
	}
}

// failRemaining marks every non-final line as failed with err.
func failRemaining(outcomes []Outcome, err error) {
	for i := range outcomes {
		if outcomes[i].Status == "" || outcomes[i].Status == StatusAccepted {
			outcomes[i].Status = StatusFailed
			outcomes[i].BookingID = 0
			outcomes[i].Err = err
		}
	}
}
