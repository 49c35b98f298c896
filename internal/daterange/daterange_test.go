package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func mustRange(t *testing.T, from, to string) Range {
	t.Helper()
	r, err := New(day(from), day(to))
	require.NoError(t, err)
	return r
}

func TestNew(t *testing.T) {
	t.Run("normalizes to UTC midnight", func(t *testing.T) {
		loc := time.FixedZone("CET", 3600)
		start := time.Date(2026, 1, 3, 15, 30, 0, 0, loc)
		end := time.Date(2026, 1, 5, 8, 0, 0, 0, loc)
		r, err := New(start, end)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), r.Start)
		assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), r.End)
	})

	t.Run("rejects degenerate ranges", func(t *testing.T) {
		_, err := New(day("2026-01-05"), day("2026-01-05"))
		assert.ErrorIs(t, err, ErrInvalidRange)

		_, err = New(day("2026-01-06"), day("2026-01-05"))
		assert.ErrorIs(t, err, ErrInvalidRange)

		_, err = New(time.Time{}, day("2026-01-05"))
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("same day different hours is degenerate", func(t *testing.T) {
		_, err := New(
			time.Date(2026, 1, 5, 1, 0, 0, 0, time.UTC),
			time.Date(2026, 1, 5, 23, 0, 0, 0, time.UTC),
		)
		assert.ErrorIs(t, err, ErrInvalidRange)
	})
}

func TestOverlaps(t *testing.T) {
	base := mustRange(t, "2026-01-05", "2026-01-10")
	cases := []struct {
		name  string
		other Range
		want  bool
	}{
		{"identical", mustRange(t, "2026-01-05", "2026-01-10"), true},
		{"contained", mustRange(t, "2026-01-06", "2026-01-08"), true},
		{"containing", mustRange(t, "2026-01-01", "2026-01-20"), true},
		{"partial left", mustRange(t, "2026-01-01", "2026-01-06"), true},
		{"partial right", mustRange(t, "2026-01-09", "2026-01-15"), true},
		{"touching before", mustRange(t, "2026-01-01", "2026-01-05"), false},
		{"touching after", mustRange(t, "2026-01-10", "2026-01-15"), false},
		{"disjoint", mustRange(t, "2026-02-01", "2026-02-05"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, base.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(base))
		})
	}
}

func TestIntersect(t *testing.T) {
	base := mustRange(t, "2026-01-05", "2026-01-10")

	got, ok := base.Intersect(mustRange(t, "2026-01-08", "2026-01-20"))
	require.True(t, ok)
	assert.Equal(t, mustRange(t, "2026-01-08", "2026-01-10"), got)

	got, ok = base.Intersect(mustRange(t, "2026-01-01", "2026-01-20"))
	require.True(t, ok)
	assert.Equal(t, base, got)

	_, ok = base.Intersect(mustRange(t, "2026-01-10", "2026-01-12"))
	assert.False(t, ok)
}

func TestContains(t *testing.T) {
	r := mustRange(t, "2026-01-05", "2026-01-10")
	assert.True(t, r.Contains(day("2026-01-05")))
	assert.True(t, r.Contains(day("2026-01-09")))
	// Midday on a covered day counts as that day.
	assert.True(t, r.Contains(time.Date(2026, 1, 9, 14, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(day("2026-01-10")))
	assert.False(t, r.Contains(day("2026-01-04")))
}

func TestDays(t *testing.T) {
	assert.Equal(t, 5, mustRange(t, "2026-01-05", "2026-01-10").Days())
	assert.Equal(t, 1, mustRange(t, "2026-01-05", "2026-01-06").Days())
}

func TestBoundaryPoints(t *testing.T) {
	points := BoundaryPoints([]Range{
		mustRange(t, "2026-01-05", "2026-01-10"),
		mustRange(t, "2026-01-08", "2026-01-12"),
		mustRange(t, "2026-01-05", "2026-01-08"), // duplicate endpoints
	})
	want := []time.Time{
		day("2026-01-05"), day("2026-01-08"), day("2026-01-10"), day("2026-01-12"),
	}
	assert.Equal(t, want, points)
}

func TestString(t *testing.T) {
	assert.Equal(t, "[2026-01-05, 2026-01-10)", mustRange(t, "2026-01-05", "2026-01-10").String())
}
