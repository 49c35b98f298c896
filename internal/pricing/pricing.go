// Package pricing supplies informational cost figures for accepted
// bookings.  Prices never influence feasibility; the coordinator only
// copies the quote onto the booking row for display and invoicing
// downstream.
package pricing

import (
	"github.com/iliyamo/equipment-rental/internal/daterange"
	"github.com/iliyamo/equipment-rental/internal/model"
)

// Quote carries the daily and total cost of a booking in cents.
type Quote struct {
	DailyCents uint32
	TotalCents uint32
}

// Quoter produces a Quote for a quantity of an equipment item over a
// date range.  Implementations must be pure and safe for concurrent
// use.
type Quoter interface {
	Quote(item model.EquipmentItem, r daterange.Range, quantity uint32) Quote
}

// FlatDaily charges the equipment's daily rate per unit per day.  It is
// the default Quoter; richer pricing (discount tiers, weekend rates)
// plugs in behind the same interface.
type FlatDaily struct{}

// Quote multiplies the item's daily rate by quantity and rental days.
func (FlatDaily) Quote(item model.EquipmentItem, r daterange.Range, quantity uint32) Quote {
	daily := item.DailyRateCents * quantity
	return Quote{
		DailyCents: daily,
		TotalCents: daily * uint32(r.Days()),
	}
}
