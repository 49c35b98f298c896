package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockRegistryAcquireRelease(t *testing.T) {
	l := NewLockRegistry()
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, 1, 50*time.Millisecond))
	// Distinct IDs do not contend.
	require.NoError(t, l.Acquire(ctx, 2, 50*time.Millisecond))

	err := l.Acquire(ctx, 1, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrLockTimeout)

	l.Release(1)
	require.NoError(t, l.Acquire(ctx, 1, 50*time.Millisecond))
	l.Release(1)
	l.Release(2)
}

func TestLockRegistryContextCancel(t *testing.T) {
	l := NewLockRegistry()
	require.NoError(t, l.Acquire(context.Background(), 1, time.Second))
	defer l.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Acquire(ctx, 1, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLockRegistryReleaseUnheldPanics(t *testing.T) {
	l := NewLockRegistry()
	assert.Panics(t, func() { l.Release(1) })
}

func TestSortedIDs(t *testing.T) {
	reqs := []Request{
		{EquipmentID: 7},
		{EquipmentID: 3},
		{EquipmentID: 7},
		{EquipmentID: 1},
	}
	assert.Equal(t, []uint64{1, 3, 7}, SortedIDs(reqs))
}
