package model

import (
	"time"

	"github.com/iliyamo/equipment-rental/internal/daterange"
)

// Booking records a quantity of one equipment item reserved for a
// project over a half-open date range.  Rows live in the `bookings`
// table.  Bookings in a terminal state (CANCELLED, RETURNED) are kept
// for history but no longer consume capacity.
//
// Fields:
//  ID             – primary key identifier.
//  EquipmentID    – equipment item being booked.
//  ProjectID      – project the booking belongs to.
//  Quantity       – number of units reserved (1..TotalQuantity).
//  StartDate      – first rental day (inclusive), UTC midnight.
//  EndDate        – day the rental ends (exclusive), UTC midnight.
//  State          – lifecycle state (PENDING, CONFIRMED, ACTIVE,
//                   RETURNED, CANCELLED).
//  DailyRateCents – informational daily cost supplied by pricing.
//  TotalCents     – informational total cost supplied by pricing.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Booking struct {
	ID             uint64    // bookings.id
	EquipmentID    uint64    // bookings.equipment_id
	ProjectID      uint64    // bookings.project_id
	Quantity       uint32    // bookings.quantity
	StartDate      time.Time // bookings.start_date
	EndDate        time.Time // bookings.end_date
	State          string    // bookings.state
	DailyRateCents uint32    // bookings.daily_rate_cents
	TotalCents     uint32    // bookings.total_cents
	CreatedAt      time.Time // bookings.created_at
	UpdatedAt      time.Time // bookings.updated_at
}

// Range returns the booking's date range as a daterange.Range value.
func (b Booking) Range() daterange.Range {
	return daterange.Range{Start: b.StartDate, End: b.EndDate}
}
