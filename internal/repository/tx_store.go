package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/equipment-rental/internal/daterange"
	"github.com/iliyamo/equipment-rental/internal/model"
	"github.com/iliyamo/equipment-rental/internal/reservation"
)

// TxStore adapts the SQL repositories to the reservation coordinator's
// transactional store contract.  Every transaction it opens carries the
// equipment row lock semantics the coordinator relies on: the row
// locked by EquipmentForUpdate stays locked until Commit or Rollback.
type TxStore struct {
	db        *sql.DB
	equipment *EquipmentRepo
	bookings  *BookingRepo
}

// NewTxStore builds a TxStore over the shared database handle.
func NewTxStore(db *sql.DB, equipment *EquipmentRepo, bookings *BookingRepo) *TxStore {
	if db == nil || equipment == nil || bookings == nil {
		panic("nil dependency passed to NewTxStore")
	}
	return &TxStore{db: db, equipment: equipment, bookings: bookings}
}

// Begin opens a new transaction.
func (s *TxStore) Begin(ctx context.Context) (reservation.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txSession{tx: tx, store: s}, nil
}

type txSession struct {
	tx    *sql.Tx
	store *TxStore
}

func (t *txSession) EquipmentForUpdate(ctx context.Context, id uint64) (*model.EquipmentItem, error) {
	return t.store.equipment.GetByIDForUpdateTx(ctx, t.tx, id)
}

func (t *txSession) ActiveOverlapping(ctx context.Context, equipmentID uint64, r daterange.Range) ([]model.Booking, error) {
	return t.store.bookings.ActiveOverlappingTx(ctx, t.tx, equipmentID, r)
}

func (t *txSession) CreateBooking(ctx context.Context, b *model.Booking) error {
	return t.store.bookings.CreateTx(ctx, t.tx, b)
}

func (t *txSession) Commit() error   { return t.tx.Commit() }
func (t *txSession) Rollback() error { return t.tx.Rollback() }
