package model

import "time"

// Reservation statuses.  A reservation is never deleted; cancellation is
// a soft state transition so the booking history stays intact.
const (
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"
)

// Reservation records a user's booking of a single slot.  The
// no-double-booking invariant is enforced by the store: among confirmed
// reservations at most one row may exist per (slot_id, start_time).
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – user who holds the reservation.
//  SlotID        – slot the reservation attaches to.
//  Date          – calendar date, "YYYY-MM-DD".
//  StartTime     – start time, "HH:MM".
//  EndTime       – end time, "HH:MM".
//  Status        – confirmed or cancelled.
//  CreditsUsed   – credits debited when the reservation was created.
//  PricingItemID – pricing catalog entry that priced the booking, if any.
//  Note          – free-text note (client request or admin remark).
//  CreatedAt     – creation timestamp.
//  CancelledAt   – when the reservation was cancelled (null while confirmed).
type Reservation struct {
	ID            uint64     // reservations.id
	UserID        uint64     // reservations.user_id
	SlotID        uint64     // reservations.slot_id
	Date          string     // reservations.res_date
	StartTime     string     // reservations.start_time
	EndTime       string     // reservations.end_time
	Status        string     // reservations.status
	CreditsUsed   int64      // reservations.credits_used
	PricingItemID *uint64    // reservations.pricing_item_id (nullable)
	Note          *string    // reservations.note (nullable)
	CreatedAt     time.Time  // reservations.created_at
	CancelledAt   *time.Time // reservations.cancelled_at (nullable)
}
