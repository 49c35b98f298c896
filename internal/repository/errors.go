// Package repository implements the persistence layer over MySQL using
// raw SQL.  This file defines sentinel error values shared by the
// repositories.  Handlers and the reservation coordinator use them to
// distinguish failure scenarios without inspecting driver errors; for
// example a not-found equipment line fails on its own while the rest of
// a best-effort batch continues.
package repository

import "errors"

// ErrEquipmentNotFound is returned when an equipment ID does not
// exist.  Handlers translate this into an HTTP 404 response; the
// coordinator marks only the offending batch line as failed.
var ErrEquipmentNotFound = errors.New("equipment not found")

// ErrBookingNotFound is returned when a booking ID does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrProjectNotFound is returned when a project ID does not exist.
var ErrProjectNotFound = errors.New("project not found")
