package reservation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrLockTimeout is returned when a per-equipment lock cannot be
// acquired within the configured wait.  The caller sees a failed
// outcome and may retry with backoff; the operation never blocks
// indefinitely because the typical caller is an interactive checkout.
var ErrLockTimeout = errors.New("timed out waiting for equipment lock")

// LockRegistry hands out one exclusive lock per equipment ID.  It
// serializes in-process commits on the same equipment before the
// database row lock is even attempted, and gives lock waits a bounded
// timeout, which SELECT ... FOR UPDATE alone does not.  Locks are
// created lazily and kept for the life of the process; the registry is
// safe for concurrent use.
type LockRegistry struct {
	mu   sync.Mutex
	sems map[uint64]chan struct{}
}

// NewLockRegistry returns an empty registry.
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{sems: make(map[uint64]chan struct{})}
}

func (l *LockRegistry) sem(id uint64) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sems[id]
	if !ok {
		s = make(chan struct{}, 1)
		l.sems[id] = s
	}
	return s
}

// Acquire takes the lock for one equipment ID, waiting at most timeout.
// It returns ErrLockTimeout when the wait expires and the context error
// when the caller cancels first.
func (l *LockRegistry) Acquire(ctx context.Context, id uint64, timeout time.Duration) error {
	s := l.sem(id)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case s <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the lock for one equipment ID.  Releasing a lock that
// is not held is a programming error and panics.
func (l *LockRegistry) Release(id uint64) {
	s := l.sem(id)
	select {
	case <-s:
	default:
		panic("reservation: release of unheld equipment lock")
	}
}

// SortedIDs returns the distinct equipment IDs of a batch in ascending
// order.  Acquiring locks in this globally consistent order prevents
// deadlock between two concurrent batches touching the same equipment
// in different submission orders.
func SortedIDs(requests []Request) []uint64 {
	seen := make(map[uint64]struct{}, len(requests))
	ids := make([]uint64, 0, len(requests))
	for _, req := range requests {
		if _, ok := seen[req.EquipmentID]; !ok {
			seen[req.EquipmentID] = struct{}{}
			ids = append(ids, req.EquipmentID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
