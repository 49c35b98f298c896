package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/equipment-rental/internal/model"
)

// EquipmentRepo provides read access to equipment_items and the
// row-level lock that serializes commits per equipment.  Mutating
// bookings never goes through this type; the reservation coordinator is
// the only writer and it uses GetByIDForUpdateTx as its write gate.
type EquipmentRepo struct {
	db *sql.DB
}

// NewEquipmentRepo returns a new EquipmentRepo bound to the given database.
func NewEquipmentRepo(db *sql.DB) *EquipmentRepo { return &EquipmentRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// that span multiple repositories.
func (r *EquipmentRepo) DB() *sql.DB { return r.db }

const equipmentColumns = `id, name, category, is_serialized, total_quantity, daily_rate_cents, status_flag, created_at, updated_at`

// scanEquipment reads one equipment row from a row scanner.
func scanEquipment(row *sql.Row) (*model.EquipmentItem, error) {
	var e model.EquipmentItem
	var category sql.NullString
	err := row.Scan(&e.ID, &e.Name, &category, &e.IsSerialized, &e.TotalQuantity,
		&e.DailyRateCents, &e.StatusFlag, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEquipmentNotFound
		}
		return nil, err
	}
	if category.Valid {
		c := category.String
		e.Category = &c
	}
	return &e, nil
}

// GetByID returns a single equipment item or ErrEquipmentNotFound.
func (r *EquipmentRepo) GetByID(ctx context.Context, id uint64) (*model.EquipmentItem, error) {
	const q = `SELECT ` + equipmentColumns + ` FROM equipment_items WHERE id = ?`
	return scanEquipment(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDForUpdateTx loads an equipment row under SELECT ... FOR UPDATE
// within the given transaction.  Holding the row lock until the
// transaction ends is what makes concurrent commits against the same
// equipment serialize, so two batches can never jointly overcommit
// capacity.
func (r *EquipmentRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.EquipmentItem, error) {
	const q = `SELECT ` + equipmentColumns + ` FROM equipment_items WHERE id = ? FOR UPDATE`
	return scanEquipment(tx.QueryRowContext(ctx, q, id))
}

// List returns all equipment items ordered by name.  Used by the public
// browse endpoints; not part of the booking path.
func (r *EquipmentRepo) List(ctx context.Context) ([]model.EquipmentItem, error) {
	const q = `SELECT ` + equipmentColumns + ` FROM equipment_items ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.EquipmentItem, 0)
	for rows.Next() {
		var e model.EquipmentItem
		var category sql.NullString
		if err := rows.Scan(&e.ID, &e.Name, &category, &e.IsSerialized, &e.TotalQuantity,
			&e.DailyRateCents, &e.StatusFlag, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		if category.Valid {
			c := category.String
			e.Category = &c
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// TotalCapacity returns the bookable capacity of an equipment item,
// honoring status flag overrides (flagged items have zero capacity).
func (r *EquipmentRepo) TotalCapacity(ctx context.Context, id uint64) (int, error) {
	e, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return e.Capacity(), nil
}

// SetStatusFlag stores an override flag on the equipment row.  Pass
// model.FlagNone to clear.  Flags gate new reservations only; existing
// bookings are left untouched.
func (r *EquipmentRepo) SetStatusFlag(ctx context.Context, id uint64, flag string) error {
	const q = `UPDATE equipment_items SET status_flag = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, flag, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is also 0 when the flag already had this value,
		// so confirm existence before reporting not-found.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
