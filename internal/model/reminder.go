package model

import "time"

// Reminder types.  The dedup key for reminder delivery is
// (reservation_id, reminder_type); each type corresponds to one lead-time
// window.
const (
	Reminder24h = "24h"
	Reminder1h  = "1h"
)

// ReminderSentRecord mirrors the append-only `reminder_sent_records`
// table.  A row is written before the reminder e-mail is dispatched; the
// unique key on (reservation_id, reminder_type) is what guarantees
// at-most-once delivery across overlapping scheduler runs and process
// restarts.
type ReminderSentRecord struct {
	ID            uint64    // reminder_sent_records.id
	ReservationID uint64    // reminder_sent_records.reservation_id
	UserID        uint64    // reminder_sent_records.user_id
	ReminderType  string    // reminder_sent_records.reminder_type
	SentAt        time.Time // reminder_sent_records.sent_at
}
