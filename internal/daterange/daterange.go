// Package daterange implements half-open date ranges used by the
// availability engine.  A Range covers the days [Start, End) at UTC
// midnight granularity: the start day is included, the end day is not.
// Two bookings that merely touch (one ends the day the other starts)
// therefore never overlap.
package daterange

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidRange is returned when a range is degenerate (start is not
// strictly before end) or when either endpoint is the zero time.  It is
// detected at the boundary so that degenerate ranges never reach the
// availability computation.
var ErrInvalidRange = errors.New("invalid date range")

// Range is a half-open interval [Start, End) over whole days.  Both
// endpoints are normalized to UTC midnight by New.
type Range struct {
	Start time.Time // first day covered (inclusive)
	End   time.Time // first day no longer covered (exclusive)
}

// New validates and normalizes a range.  Both endpoints are truncated
// to UTC midnight.  It returns ErrInvalidRange when start is not
// strictly before end after normalization.
func New(start, end time.Time) (Range, error) {
	if start.IsZero() || end.IsZero() {
		return Range{}, ErrInvalidRange
	}
	r := Range{Start: Day(start), End: Day(end)}
	if !r.Start.Before(r.End) {
		return Range{}, ErrInvalidRange
	}
	return r, nil
}

// Day truncates a timestamp to UTC midnight.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether two half-open ranges share at least one day.
// Touching ranges (r.End == o.Start) do not overlap.
func (r Range) Overlaps(o Range) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Intersect returns the overlapping portion of two ranges.  The second
// return value is false when the ranges do not overlap.
func (r Range) Intersect(o Range) (Range, bool) {
	if !r.Overlaps(o) {
		return Range{}, false
	}
	out := r
	if o.Start.After(out.Start) {
		out.Start = o.Start
	}
	if o.End.Before(out.End) {
		out.End = o.End
	}
	return out, true
}

// Contains reports whether the instant t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	t = Day(t)
	return !t.Before(r.Start) && t.Before(r.End)
}

// Days returns the number of whole days covered by the range.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start) / (24 * time.Hour))
}

// String renders the range as "[2026-01-01, 2026-01-05)" for logs and
// conflict reports.
func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
}

// BoundaryPoints collects the sorted, de-duplicated endpoints of the
// given ranges.  Consecutive pairs of the result partition the union of
// the ranges into maximal sub-intervals on which the set of covering
// ranges is constant, which is what the availability sweep iterates
// over.
func BoundaryPoints(ranges []Range) []time.Time {
	seen := make(map[time.Time]struct{}, len(ranges)*2)
	points := make([]time.Time, 0, len(ranges)*2)
	for _, r := range ranges {
		for _, p := range [2]time.Time{r.Start, r.End} {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				points = append(points, p)
			}
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Before(points[j]) })
	return points
}
