package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/movsar/trainer-booking/internal/model"
)

// ReminderRepo persists reminder send-records. The table is append-only
// and carries a unique key on (reservation_id, reminder_type); the
// scheduler records a send there before dispatching the e-mail, which is
// what bounds delivery to at most once per reservation and lead-time
// type even across overlapping runs.
type ReminderRepo struct{ db *sql.DB }

func NewReminderRepo(db *sql.DB) *ReminderRepo { return &ReminderRepo{db: db} }

// Record writes a send-record. It returns ErrConflict when a record for
// the same (reservation, type) already exists, which callers treat as
// "someone else already sent this" and skip the dispatch.
func (r *ReminderRepo) Record(ctx context.Context, rec *model.ReminderSentRecord) error {
	rec.SentAt = time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reminder_sent_records (reservation_id, user_id, reminder_type, sent_at)
		 VALUES (?, ?, ?, ?)`,
		rec.ReservationID, rec.UserID, rec.ReminderType, rec.SentAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// ExistsByReservationAndType reports whether a reminder of the given
// type was already recorded for the reservation. The manual admin send
// checks this synchronously before dispatching.
func (r *ReminderRepo) ExistsByReservationAndType(ctx context.Context, reservationID uint64, reminderType string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM reminder_sent_records WHERE reservation_id = ? AND reminder_type = ? LIMIT 1`,
		reservationID, reminderType).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
