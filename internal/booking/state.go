// Package booking governs the lifecycle of a committed booking and the
// derived status of equipment.  The state machine is
//
//	PENDING -> CONFIRMED -> ACTIVE -> RETURNED
//
// with CANCELLED reachable from any pre-terminal state.  A draft cart
// line is never persisted, so the machine starts at PENDING.  Moving
// into RETURNED or CANCELLED is the only way capacity is released; the
// repository excludes terminal bookings from capacity accounting.
package booking

import (
	"errors"
	"time"

	"github.com/iliyamo/equipment-rental/internal/model"
)

// Booking lifecycle states as stored in bookings.state.
const (
	StatePending   = "PENDING"
	StateConfirmed = "CONFIRMED"
	StateActive    = "ACTIVE"
	StateReturned  = "RETURNED"
	StateCancelled = "CANCELLED"
)

// ErrInvalidTransition is returned when a requested state change is not
// permitted by the machine, including any move out of a terminal state.
var ErrInvalidTransition = errors.New("invalid booking state transition")

// ErrUnknownState is returned when a state string is not one of the
// defined lifecycle states.
var ErrUnknownState = errors.New("unknown booking state")

// transitions lists the permitted target states per source state.
// PENDING may skip CONFIRMED straight to ACTIVE because a rental can
// start without an explicit approval step.
var transitions = map[string][]string{
	StatePending:   {StateConfirmed, StateActive, StateCancelled},
	StateConfirmed: {StateActive, StateCancelled},
	StateActive:    {StateReturned, StateCancelled},
	StateReturned:  {},
	StateCancelled: {},
}

// Known reports whether s is a defined lifecycle state.
func Known(s string) bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether s is a terminal state.  Terminal bookings
// are retained for history but release their capacity.
func Terminal(s string) bool {
	return s == StateReturned || s == StateCancelled
}

// CanTransition reports whether a booking may move from one state to
// another.  A no-op transition (from == to) is not permitted.
func CanTransition(from, to string) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Validate checks a requested transition and returns a typed error when
// it is not allowed.  Callers apply the transition only on nil.
func Validate(from, to string) error {
	if !Known(from) || !Known(to) {
		return ErrUnknownState
	}
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	return nil
}

// DeriveStatus computes the externally visible status of an equipment
// item.  A status flag overrides everything; otherwise the item is
// RENTED while any ACTIVE booking covers the given instant, and
// AVAILABLE the rest of the time.  The bookings slice may contain
// bookings in any state; only ACTIVE ones are considered.
func DeriveStatus(item model.EquipmentItem, bookings []model.Booking, now time.Time) string {
	if item.StatusFlag != model.FlagNone {
		return item.StatusFlag
	}
	for _, b := range bookings {
		if b.State == StateActive && b.Range().Contains(now) {
			return model.StatusRented
		}
	}
	return model.StatusAvailable
}
