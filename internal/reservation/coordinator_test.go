package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/equipment-rental/internal/booking"
	"github.com/iliyamo/equipment-rental/internal/daterange"
	"github.com/iliyamo/equipment-rental/internal/model"
	"github.com/iliyamo/equipment-rental/internal/pricing"
)

var errEquipmentMissing = errors.New("equipment not found")

// memStore is an in-memory Store with the same locking contract as the
// SQL implementation: EquipmentForUpdate holds an exclusive per-row
// lock until Commit or Rollback, and reads inside a transaction see the
// transaction's own uncommitted bookings.
type memStore struct {
	mu       sync.Mutex
	items    map[uint64]model.EquipmentItem
	bookings []model.Booking
	nextID   uint64
	rowLocks map[uint64]*sync.Mutex
	beginErr error
}

func newMemStore(items ...model.EquipmentItem) *memStore {
	s := &memStore{
		items:    make(map[uint64]model.EquipmentItem),
		rowLocks: make(map[uint64]*sync.Mutex),
	}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func (s *memStore) rowLock(id uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rowLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[id] = l
	}
	return l
}

func (s *memStore) seed(b model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b.ID = s.nextID
	s.bookings = append(s.bookings, b)
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

func (s *memStore) Begin(ctx context.Context) (Tx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	return &memTx{s: s, locked: make(map[uint64]bool)}, nil
}

type memTx struct {
	s       *memStore
	locked  map[uint64]bool
	created []model.Booking
}

func (t *memTx) EquipmentForUpdate(ctx context.Context, id uint64) (*model.EquipmentItem, error) {
	t.s.mu.Lock()
	item, ok := t.s.items[id]
	t.s.mu.Unlock()
	if !ok {
		return nil, errEquipmentMissing
	}
	if !t.locked[id] {
		t.s.rowLock(id).Lock()
		t.locked[id] = true
	}
	return &item, nil
}

func (t *memTx) ActiveOverlapping(ctx context.Context, equipmentID uint64, r daterange.Range) ([]model.Booking, error) {
	t.s.mu.Lock()
	committed := append([]model.Booking(nil), t.s.bookings...)
	t.s.mu.Unlock()

	var out []model.Booking
	for _, b := range append(committed, t.created...) {
		if b.EquipmentID != equipmentID || booking.Terminal(b.State) {
			continue
		}
		if r.Overlaps(b.Range()) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *memTx) CreateBooking(ctx context.Context, b *model.Booking) error {
	t.s.mu.Lock()
	t.s.nextID++
	b.ID = t.s.nextID
	t.s.mu.Unlock()
	t.created = append(t.created, *b)
	return nil
}

func (t *memTx) finish() {
	for id, held := range t.locked {
		if held {
			t.s.rowLock(id).Unlock()
			t.locked[id] = false
		}
	}
}

func (t *memTx) Commit() error {
	t.s.mu.Lock()
	t.s.bookings = append(t.s.bookings, t.created...)
	t.s.mu.Unlock()
	t.finish()
	return nil
}

func (t *memTx) Rollback() error {
	t.created = nil
	t.finish()
	return nil
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func rng(from, to string) daterange.Range {
	return daterange.Range{Start: day(from), End: day(to)}
}

func newTestCoordinator(s *memStore) *Coordinator {
	return NewCoordinator(s, NewLockRegistry(), pricing.FlatDaily{}, 200*time.Millisecond)
}

func TestCommitBatchInvalidPolicy(t *testing.T) {
	c := newTestCoordinator(newMemStore())
	_, err := c.CommitBatch(context.Background(), nil, Policy("HALFWAY"))
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestCommitBatchAllOrNothingAtomic(t *testing.T) {
	store := newMemStore(
		model.EquipmentItem{ID: 1, TotalQuantity: 2, DailyRateCents: 1000},
		model.EquipmentItem{ID: 2, TotalQuantity: 1, DailyRateCents: 1000},
	)
	// Equipment 2 is fully taken for the whole window.
	store.seed(model.Booking{
		EquipmentID: 2, ProjectID: 9, Quantity: 1,
		StartDate: day("2026-01-01"), EndDate: day("2026-01-10"),
		State: booking.StateConfirmed,
	})

	c := newTestCoordinator(store)
	outcomes, err := c.CommitBatch(context.Background(), []Request{
		{EquipmentID: 1, ProjectID: 7, Quantity: 1, Range: rng("2026-01-02", "2026-01-05")},
		{EquipmentID: 2, ProjectID: 7, Quantity: 1, Range: rng("2026-01-02", "2026-01-05")},
	}, PolicyAllOrNothing)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	// The feasible line is dragged down by its sibling.
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.ErrorIs(t, outcomes[0].Err, ErrBatchAborted)
	assert.Zero(t, outcomes[0].BookingID)

	assert.Equal(t, StatusRejected, outcomes[1].Status)
	require.NotEmpty(t, outcomes[1].Conflicts)
	assert.Equal(t, 0, outcomes[1].Conflicts[0].Available)

	// Nothing persisted beyond the seeded booking.
	assert.Equal(t, 1, store.count())
}

func TestCommitBatchBestEffortPartial(t *testing.T) {
	store := newMemStore(
		model.EquipmentItem{ID: 1, TotalQuantity: 2, DailyRateCents: 1000},
		model.EquipmentItem{ID: 2, TotalQuantity: 1, DailyRateCents: 1000},
	)
	store.seed(model.Booking{
		EquipmentID: 2, ProjectID: 9, Quantity: 1,
		StartDate: day("2026-01-01"), EndDate: day("2026-01-10"),
		State: booking.StateActive,
	})

	c := newTestCoordinator(store)
	outcomes, err := c.CommitBatch(context.Background(), []Request{
		{EquipmentID: 1, ProjectID: 7, Quantity: 1, Range: rng("2026-01-02", "2026-01-05")},
		{EquipmentID: 2, ProjectID: 7, Quantity: 1, Range: rng("2026-01-02", "2026-01-05")},
	}, PolicyBestEffort)
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, outcomes[0].Status)
	assert.NotZero(t, outcomes[0].BookingID)

	assert.Equal(t, StatusRejected, outcomes[1].Status)
	assert.NotEmpty(t, outcomes[1].Conflicts)

	// The accepted line is durably committed.
	assert.Equal(t, 2, store.count())
}

// Later lines of a batch must see earlier lines of the same batch, both
// in the committed (best effort) and the speculative (all or nothing)
// case.
func TestCommitBatchBatchLocalVisibility(t *testing.T) {
	line := Request{EquipmentID: 1, ProjectID: 7, Quantity: 1, Range: rng("2026-01-02", "2026-01-05")}

	t.Run("best effort", func(t *testing.T) {
		store := newMemStore(model.EquipmentItem{ID: 1, TotalQuantity: 1, DailyRateCents: 1000})
		c := newTestCoordinator(store)
		outcomes, err := c.CommitBatch(context.Background(), []Request{line, line}, PolicyBestEffort)
		require.NoError(t, err)
		assert.Equal(t, StatusAccepted, outcomes[0].Status)
		assert.Equal(t, StatusRejected, outcomes[1].Status)
		assert.Equal(t, 1, store.count())
	})

	t.Run("all or nothing", func(t *testing.T) {
		store := newMemStore(model.EquipmentItem{ID: 1, TotalQuantity: 1, DailyRateCents: 1000})
		c := newTestCoordinator(store)
		outcomes, err := c.CommitBatch(context.Background(), []Request{line, line}, PolicyAllOrNothing)
		require.NoError(t, err)
		// The second line conflicts with the first's speculative booking,
		// so the whole batch is rolled back.
		assert.Equal(t, StatusFailed, outcomes[0].Status)
		assert.ErrorIs(t, outcomes[0].Err, ErrBatchAborted)
		assert.Equal(t, StatusRejected, outcomes[1].Status)
		assert.Zero(t, store.count())
	})
}

func TestCommitBatchValidation(t *testing.T) {
	good := Request{EquipmentID: 1, ProjectID: 7, Quantity: 1, Range: rng("2026-01-02", "2026-01-05")}
	bad := Request{EquipmentID: 1, ProjectID: 7, Quantity: 0, Range: rng("2026-01-02", "2026-01-05")}

	t.Run("all or nothing aborts before locking", func(t *testing.T) {
		store := newMemStore(model.EquipmentItem{ID: 1, TotalQuantity: 5, DailyRateCents: 1000})
		c := newTestCoordinator(store)
		outcomes, err := c.CommitBatch(context.Background(), []Request{good, bad}, PolicyAllOrNothing)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, outcomes[0].Status)
		assert.ErrorIs(t, outcomes[0].Err, ErrBatchAborted)
		assert.Equal(t, StatusFailed, outcomes[1].Status)
		assert.ErrorIs(t, outcomes[1].Err, ErrInvalidQuantity)
		assert.Zero(t, store.count())
	})

	t.Run("best effort isolates the bad line", func(t *testing.T) {
		store := newMemStore(model.EquipmentItem{ID: 1, TotalQuantity: 5, DailyRateCents: 1000})
		c := newTestCoordinator(store)
		outcomes, err := c.CommitBatch(context.Background(), []Request{bad, good}, PolicyBestEffort)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, outcomes[0].Status)
		assert.ErrorIs(t, outcomes[0].Err, ErrInvalidQuantity)
		assert.Equal(t, StatusAccepted, outcomes[1].Status)
		assert.Equal(t, 1, store.count())
	})

	t.Run("inverted range fails the line", func(t *testing.T) {
		store := newMemStore(model.EquipmentItem{ID: 1, TotalQuantity: 5, DailyRateCents: 1000})
		c := newTestCoordinator(store)
		inverted := good
		inverted.Range = daterange.Range{Start: day("2026-01-05"), End: day("2026-01-02")}
		outcomes, err := c.CommitBatch(context.Background(), []Request{inverted}, PolicyBestEffort)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, outcomes[0].Status)
		assert.ErrorIs(t, outcomes[0].Err, daterange.ErrInvalidRange)
	})
}

func TestCommitBatchUnknownEquipment(t *testing.T) {
	store := newMemStore(model.EquipmentItem{ID: 1, TotalQuantity: 5, DailyRateCents: 1000})
	c := newTestCoordinator(store)
	outcomes, err := c.CommitBatch(context.Background(), []Request{
		{EquipmentID: 99, ProjectID: 7, Quantity: 1, Range: rng("2026-01-02", "2026-01-05")},
		{EquipmentID: 1, ProjectID: 7, Quantity: 1, Range: rng("2026-01-02", "2026-01-05")},
	}, PolicyBestEffort)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.ErrorIs(t, outcomes[0].Err, errEquipmentMissing)
	assert.Equal(t, StatusAccepted, outcomes[1].Status)
}

func TestCommitBatchLockTimeout(t *testing.T) {
	store := newMemStore(model.EquipmentItem{ID: 1, TotalQuantity: 5, DailyRateCents: 1000})
	locks := NewLockRegistry()
	c := NewCoordinator(store, locks, pricing.FlatDaily{}, 20*time.Millisecond)

	// Hold the equipment lock from outside the batch.
	require.NoError(t, locks.Acquire(context.Background(), 1, time.Second))
	defer locks.Release(1)

	outcomes, err := c.CommitBatch(context.Background(), []Request{
		{EquipmentID: 1, ProjectID: 7, Quantity: 1, Range: rng("2026-01-02", "2026-01-05")},
	}, PolicyAllOrNothing)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.ErrorIs(t, outcomes[0].Err, ErrLockTimeout)
	assert.Zero(t, store.count())
}

func TestCommitBatchCancelledWhileWaiting(t *testing.T) {
	store := newMemStore(model.EquipmentItem{ID: 1, TotalQuantity: 5, DailyRateCents: 1000})
	locks := NewLockRegistry()
	c := NewCoordinator(store, locks, pricing.FlatDaily{}, time.Minute)

	require.NoError(t, locks.Acquire(context.Background(), 1, time.Second))
	defer locks.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := c.CommitBatch(ctx, []Request{
		{EquipmentID: 1, ProjectID: 7, Quantity: 1, Range: rng("2026-01-02", "2026-01-05")},
	}, PolicyBestEffort)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.ErrorIs(t, outcomes[0].Err, context.Canceled)
	assert.Zero(t, store.count())
}

// Two concurrent batches compete for the last unit; exactly one wins.
func TestCommitBatchConcurrentLastUnit(t *testing.T) {
	store := newMemStore(model.EquipmentItem{ID: 1, TotalQuantity: 1, DailyRateCents: 1000})
	c := NewCoordinator(store, NewLockRegistry(), pricing.FlatDaily{}, time.Second)

	req := Request{EquipmentID: 1, ProjectID: 7, Quantity: 1, Range: rng("2026-01-02", "2026-01-05")}

	results := make(chan Outcome, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes, err := c.CommitBatch(context.Background(), []Request{req}, PolicyAllOrNothing)
			require.NoError(t, err)
			results <- outcomes[0]
		}()
	}
	wg.Wait()
	close(results)

	var accepted, rejected int
	for out := range results {
		switch out.Status {
		case StatusAccepted:
			accepted++
		case StatusRejected:
			rejected++
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 1, store.count())
}

func TestCommitBatchBeginFailure(t *testing.T) {
	store := newMemStore(model.EquipmentItem{ID: 1, TotalQuantity: 5, DailyRateCents: 1000})
	store.beginErr = errors.New("connection refused")
	c := newTestCoordinator(store)

	outcomes, err := c.CommitBatch(context.Background(), []Request{
		{EquipmentID: 1, ProjectID: 7, Quantity: 1, Range: rng("2026-01-02", "2026-01-05")},
	}, PolicyAllOrNothing)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.ErrorIs(t, outcomes[0].Err, store.beginErr)
}

func TestCommitBatchPricesLines(t *testing.T) {
	store := newMemStore(model.EquipmentItem{ID: 1, TotalQuantity: 5, DailyRateCents: 2500})
	c := newTestCoordinator(store)

	outcomes, err := c.CommitBatch(context.Background(), []Request{
		{EquipmentID: 1, ProjectID: 7, Quantity: 2, Range: rng("2026-01-02", "2026-01-05")},
	}, PolicyBestEffort)
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, outcomes[0].Status)

	require.Equal(t, 1, store.count())
	b := store.bookings[0]
	assert.Equal(t, booking.StatePending, b.State)
	assert.Equal(t, uint32(5000), b.DailyRateCents)  // 2500 * 2 units
	assert.Equal(t, uint32(15000), b.TotalCents)     // 3 days
}
