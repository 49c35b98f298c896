package model

import "time"

// Project represents a client project that bookings are attached to.
// Project and client management happens upstream of this engine; the
// engine only needs the row to validate the foreign key and to list a
// project's bookings.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – project name.
//  ClientID  – owning client (managed upstream, not joined here).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Project struct {
	ID        uint64    // projects.id
	Name      string    // projects.name
	ClientID  uint64    // projects.client_id
	CreatedAt time.Time // projects.created_at
	UpdatedAt time.Time // projects.updated_at
}
