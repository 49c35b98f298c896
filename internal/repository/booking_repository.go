package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/equipment-rental/internal/booking"
	"github.com/iliyamo/equipment-rental/internal/daterange"
	"github.com/iliyamo/equipment-rental/internal/model"
)

// BookingRepo provides access to the bookings table.  Reads implement
// the capacity ledger contract (active bookings only); writes are the
// Tx variants called by the reservation coordinator and the state
// transition path, always inside a transaction that also holds the
// equipment row lock.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle for transaction management.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingColumns = `id, equipment_id, project_id, quantity, start_date, end_date, state, daily_rate_cents, total_cents, created_at, updated_at`

// terminalStates is inlined into queries that exclude bookings no
// longer holding capacity.
const nonTerminalCond = `state NOT IN ('RETURNED', 'CANCELLED')`

func scanBookings(rows *sql.Rows) ([]model.Booking, error) {
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.EquipmentID, &b.ProjectID, &b.Quantity,
			&b.StartDate, &b.EndDate, &b.State, &b.DailyRateCents, &b.TotalCents,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveOverlapping returns the non-terminal bookings of an equipment
// item whose range overlaps [start, end).  Half-open semantics: a
// booking touching the range (end == start) is not returned.  This is
// the read half of the capacity ledger; it enforces nothing itself.
func (r *BookingRepo) ActiveOverlapping(ctx context.Context, equipmentID uint64, rng daterange.Range) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
	           WHERE equipment_id = ? AND ` + nonTerminalCond + `
	             AND start_date < ? AND end_date > ?
	           ORDER BY start_date, id`
	rows, err := r.db.QueryContext(ctx, q, equipmentID, rng.End, rng.Start)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

// ActiveOverlappingTx is ActiveOverlapping inside an existing
// transaction, used by the coordinator while holding the equipment row
// lock so the view is consistent with the most recent commit.
func (r *BookingRepo) ActiveOverlappingTx(ctx context.Context, tx *sql.Tx, equipmentID uint64, rng daterange.Range) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
	           WHERE equipment_id = ? AND ` + nonTerminalCond + `
	             AND start_date < ? AND end_date > ?
	           ORDER BY start_date, id`
	rows, err := tx.QueryContext(ctx, q, equipmentID, rng.End, rng.Start)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

// ActiveByEquipment returns all non-terminal bookings for an equipment
// item, used when deriving its current status.
func (r *BookingRepo) ActiveByEquipment(ctx context.Context, equipmentID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
	           WHERE equipment_id = ? AND ` + nonTerminalCond + `
	           ORDER BY start_date, id`
	rows, err := r.db.QueryContext(ctx, q, equipmentID)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

// CreateTx inserts a new booking within the scope of an existing
// transaction and populates the generated ID and timestamps on the
// passed value.  The caller must commit or roll back the transaction.
// This is the only path that adds capacity consumption to the ledger.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings
	           (equipment_id, project_id, quantity, start_date, end_date, state, daily_rate_cents, total_cents)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, b.EquipmentID, b.ProjectID, b.Quantity,
		b.StartDate, b.EndDate, b.State, b.DailyRateCents, b.TotalCents)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query back the row to populate DB-side timestamp defaults.
	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// GetByID returns a single booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDForUpdateTx loads a booking row under SELECT ... FOR UPDATE so
// that concurrent state transitions serialize on the row.
func (r *BookingRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? FOR UPDATE`
	return r.scanOne(tx.QueryRowContext(ctx, q, id))
}

func (r *BookingRepo) scanOne(row *sql.Row) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.EquipmentID, &b.ProjectID, &b.Quantity,
		&b.StartDate, &b.EndDate, &b.State, &b.DailyRateCents, &b.TotalCents,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// UpdateStateTx advances a booking to a new state within the given
// transaction.  State validity is the booking package's concern; this
// method only persists the change.  Capacity release on terminal
// transitions falls out of the non-terminal filter in the ledger reads,
// so commit of this transaction is the transactional boundary required
// by the state machine.
func (r *BookingRepo) UpdateStateTx(ctx context.Context, tx *sql.Tx, id uint64, state string) error {
	if !booking.Known(state) {
		return booking.ErrUnknownState
	}
	const q = `UPDATE bookings SET state = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, state, id)
	return err
}

// ListByProject returns all bookings of a project, newest first.  Used
// by the cart/project views; not part of the commit path.
func (r *BookingRepo) ListByProject(ctx context.Context, projectID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
	           WHERE project_id = ?
	           ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}
