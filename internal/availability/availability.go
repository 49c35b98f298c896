// Package availability answers whether a quantity of an equipment item
// can be reserved over a date range, and describes the conflicting
// sub-ranges when it cannot.  The computation is pure: callers supply
// the item's capacity and the set of bookings currently holding
// capacity, typically read under the same lock that protects the
// subsequent commit.
package availability

import (
	"errors"

	"github.com/iliyamo/equipment-rental/internal/booking"
	"github.com/iliyamo/equipment-rental/internal/daterange"
	"github.com/iliyamo/equipment-rental/internal/model"
)

// ErrInvalidQuantity is returned by Evaluate when the requested
// quantity is not a positive integer.  Quantity validation happens
// before any booking is examined.
var ErrInvalidQuantity = errors.New("invalid quantity")

// Request describes one availability question: can Quantity units of
// the equipment be reserved over Range?  ExcludeBookingID, when
// non-zero, removes that booking from the computation so that editing
// an existing booking does not conflict with itself.
type Request struct {
	Range            daterange.Range
	Quantity         int
	ExcludeBookingID uint64
}

// Conflict reports one sub-range of the request where the remaining
// capacity is below the requested quantity.  Adjacent sub-ranges with
// identical availability are merged, so a report stays compact enough
// to show to a person.
type Conflict struct {
	Range     daterange.Range
	Available int
	Requested int
}

// Result is the outcome of an evaluation.  Satisfiable is true iff the
// full requested quantity fits on every day of the requested range, in
// which case Conflicts is empty.
type Result struct {
	Satisfiable bool
	Conflicts   []Conflict
}

// Evaluate runs the sweep described by the capacity model: it clips the
// active bookings to the requested range, partitions the range at every
// booking boundary, sums the quantities covering each sub-interval and
// compares the remaining headroom against the requested quantity.
//
// The bookings slice may contain bookings in any state and over any
// range; terminal-state bookings, the excluded booking and bookings
// that do not overlap the request are skipped here.  Capacity below or
// equal to zero (a flagged item) makes every sub-interval conflict.
func Evaluate(req Request, capacity int, bookings []model.Booking) (Result, error) {
	if req.Quantity < 1 {
		return Result{}, ErrInvalidQuantity
	}
	if !req.Range.Start.Before(req.Range.End) {
		return Result{}, daterange.ErrInvalidRange
	}

	// Clip each relevant booking to the requested range.  Half-open
	// semantics make touching bookings fall out naturally: Overlaps is
	// false when one range ends where the other starts.
	type slice struct {
		r daterange.Range
		q int
	}
	overlapping := make([]slice, 0, len(bookings))
	for _, b := range bookings {
		if b.ID != 0 && b.ID == req.ExcludeBookingID {
			continue
		}
		if booking.Terminal(b.State) {
			continue
		}
		clipped, ok := req.Range.Intersect(b.Range())
		if !ok {
			continue
		}
		overlapping = append(overlapping, slice{r: clipped, q: int(b.Quantity)})
	}

	// No competing bookings: the request succeeds iff the capacity
	// alone can carry it.
	if len(overlapping) == 0 {
		if capacity >= req.Quantity {
			return Result{Satisfiable: true}, nil
		}
		return Result{Conflicts: []Conflict{{
			Range:     req.Range,
			Available: max(capacity, 0),
			Requested: req.Quantity,
		}}}, nil
	}

	// Sweep the boundary points across the request and all clipped
	// bookings.  Each adjacent pair of points is a sub-interval on
	// which the covering set, and therefore the headroom, is constant.
	ranges := make([]daterange.Range, 0, len(overlapping)+1)
	ranges = append(ranges, req.Range)
	for _, s := range overlapping {
		ranges = append(ranges, s.r)
	}
	points := daterange.BoundaryPoints(ranges)

	var conflicts []Conflict
	satisfiable := true
	for i := 0; i+1 < len(points); i++ {
		sub := daterange.Range{Start: points[i], End: points[i+1]}
		used := 0
		for _, s := range overlapping {
			if s.r.Overlaps(sub) {
				used += s.q
			}
		}
		available := capacity - used
		if available >= req.Quantity {
			continue
		}
		satisfiable = false
		conflicts = appendConflict(conflicts, Conflict{
			Range:     sub,
			Available: max(available, 0),
			Requested: req.Quantity,
		})
	}
	if satisfiable {
		return Result{Satisfiable: true}, nil
	}
	return Result{Conflicts: conflicts}, nil
}

// appendConflict merges a new conflicting sub-interval into the report,
// extending the previous entry when the two are adjacent and expose the
// same availability.
func appendConflict(report []Conflict, c Conflict) []Conflict {
	if n := len(report); n > 0 {
		last := &report[n-1]
		if last.Range.End.Equal(c.Range.Start) && last.Available == c.Available {
			last.Range.End = c.Range.End
			return report
		}
	}
	return append(report, c)
}
