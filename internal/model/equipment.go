package model

import "time"

// Status flag values stored on equipment_items.status_flag.  An empty
// flag means no override.  A non-empty flag blocks all new reservations
// for the item; the availability calculator treats flagged equipment as
// having zero capacity.  Flags never cancel existing bookings.
const (
	FlagNone        = ""
	FlagMaintenance = "MAINTENANCE"
	FlagBroken      = "BROKEN"
	FlagRetired     = "RETIRED"
)

// Derived equipment status values returned to callers.  These are
// computed from the status flag and the current bookings, never stored.
const (
	StatusAvailable   = "AVAILABLE"
	StatusRented      = "RENTED"
	StatusMaintenance = FlagMaintenance
	StatusBroken      = FlagBroken
	StatusRetired     = FlagRetired
)

// EquipmentItem represents a rentable piece of equipment as stored in
// the `equipment_items` table.  Serialized items are uniquely
// identified physical units with capacity exactly 1; pooled items carry
// TotalQuantity interchangeable units.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – display name of the equipment.
//  Category       – optional free-form category label.
//  IsSerialized   – true when the item is a unique physical unit.
//  TotalQuantity  – number of interchangeable units (1 for serialized).
//  DailyRateCents – informational daily rental rate in cents.
//  StatusFlag     – externally set override flag (see Flag constants).
//  CreatedAt      – timestamp when the item was created.
//  UpdatedAt      – timestamp of last update.
type EquipmentItem struct {
	ID             uint64    // equipment_items.id
	Name           string    // equipment_items.name
	Category       *string   // equipment_items.category (nullable)
	IsSerialized   bool      // equipment_items.is_serialized
	TotalQuantity  uint32    // equipment_items.total_quantity
	DailyRateCents uint32    // equipment_items.daily_rate_cents
	StatusFlag     string    // equipment_items.status_flag ('' when none)
	CreatedAt      time.Time // equipment_items.created_at
	UpdatedAt      time.Time // equipment_items.updated_at
}

// Capacity returns the bookable capacity of the item: zero when a
// status flag blocks the item, otherwise the total quantity.
func (e EquipmentItem) Capacity() int {
	if e.StatusFlag != FlagNone {
		return 0
	}
	return int(e.TotalQuantity)
}
