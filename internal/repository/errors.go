// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios. For example, ErrSlotTaken indicates that a concurrent
// request reserved the same slot first, while ErrInsufficientCredits
// signals that the user cannot afford the booking.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a referenced user, slot, reservation,
// template or policy does not exist. Handlers should translate this
// into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state, such as editing or deleting a slot that still
// has a confirmed reservation. Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrSlotTaken is returned when a confirmed reservation already exists
// for the requested slot and start time. The store enforces this with a
// unique key, so the error is reliable even under concurrent bookings.
var ErrSlotTaken = errors.New("slot already booked")

// ErrDuplicateSlot is returned when creating a slot at a (date, start
// time) where a live slot row already exists.
var ErrDuplicateSlot = errors.New("duplicate slot")

// ErrAlreadyCancelled is returned when cancelling a reservation that is
// already in the cancelled state.
var ErrAlreadyCancelled = errors.New("reservation already cancelled")

// ErrInsufficientCredits is returned when a debit would take the user's
// balance below zero.
var ErrInsufficientCredits = errors.New("insufficient credits")

// isDuplicateKey reports whether err is a unique-constraint violation.
// MySQL reports error 1062; sqlite (used by the test store) reports a
// "UNIQUE constraint failed" message.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique constraint")
}
