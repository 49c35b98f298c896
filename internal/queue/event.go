// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingCommittedEvent is published for every booking line accepted by
// the reservation coordinator.  It carries enough information for
// downstream consumers to log, notify, or trigger invoicing without
// querying the primary database.
type BookingCommittedEvent struct {
	BookingID      uint64 `json:"booking_id"`
	EquipmentID    uint64 `json:"equipment_id"`
	EquipmentName  string `json:"equipment_name"`
	ProjectID      uint64 `json:"project_id"`
	Quantity       uint32 `json:"quantity"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	State          string `json:"state"`
	DailyRateCents uint32 `json:"daily_rate_cents"`
	TotalCents     uint32 `json:"total_cents"`
	CommittedAt    string `json:"committed_at"`
}

// BookingTransitionedEvent is published when a booking changes state,
// including the terminal transitions that release capacity.
type BookingTransitionedEvent struct {
	BookingID   uint64 `json:"booking_id"`
	EquipmentID uint64 `json:"equipment_id"`
	FromState   string `json:"from_state"`
	ToState     string `json:"to_state"`
	OccurredAt  string `json:"occurred_at"`
}
