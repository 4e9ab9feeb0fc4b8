package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/movsar/trainer-booking/internal/model"
)

// ReservationRepo provides persistence for reservations. A reservation
// attaches a user to exactly one slot; cancellation is a soft state
// transition and rows are never deleted. The `active` marker column is 1
// for confirmed rows and NULL once cancelled, which lets the unique key
// on (slot_id, start_time, active) enforce the no-double-booking
// invariant while still permitting any number of cancelled rows at the
// same time. All timestamp fields are stored in UTC.
type ReservationRepo struct{ db *sql.DB }

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so services can open transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `id, user_id, slot_id, res_date, start_time, end_time, status, credits_used, pricing_item_id, note, created_at, cancelled_at`

// CreateTx inserts a confirmed reservation within the scope of an
// existing transaction and populates the generated ID. The insert races
// against concurrent bookings of the same slot on purpose: the unique
// key decides the winner and the losers receive ErrSlotTaken. The
// caller must commit or roll back the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	res.Status = model.ReservationConfirmed
	res.CreatedAt = time.Now().UTC().Truncate(time.Second)
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (user_id, slot_id, res_date, start_time, end_time, status, credits_used, pricing_item_id, note, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		res.UserID, res.SlotID, res.Date, res.StartTime, res.EndTime, res.Status,
		res.CreditsUsed, res.PricingItemID, res.Note, res.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrSlotTaken
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// GetByID fetches a reservation. Returns ErrNotFound when missing.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	return scanReservationRow(r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ? LIMIT 1`, id))
}

// GetByIDTx is GetByID within an existing transaction.
func (r *ReservationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error) {
	return scanReservationRow(tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ? LIMIT 1`, id))
}

// CancelTx flips a confirmed reservation to cancelled and clears the
// active marker so the slot's (slot_id, start_time) key frees up. The
// status guard in the WHERE clause makes a second cancel report
// ErrAlreadyCancelled instead of silently succeeding.
func (r *ReservationRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, active = NULL, cancelled_at = ? WHERE id = ? AND status = ?`,
		model.ReservationCancelled, at.UTC().Truncate(time.Second), id, model.ReservationConfirmed)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM reservations WHERE id = ?`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrAlreadyCancelled
	}
	return nil
}

// UpdateNote replaces the free-text note of a reservation.
func (r *ReservationRepo) UpdateNote(ctx context.Context, id uint64, note *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reservations SET note = ? WHERE id = ?`, note, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns the user's reservations, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

// ListByDate returns all reservations on a date ordered by start time,
// for the admin day view.
func (r *ReservationRepo) ListByDate(ctx context.Context, date string) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE res_date = ? ORDER BY start_time, id`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

// ConfirmedBetweenDates returns confirmed reservations whose date falls
// within [from, to]. The reminder scheduler uses this as its coarse
// today/tomorrow filter.
func (r *ReservationRepo) ConfirmedBetweenDates(ctx context.Context, from, to string) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE status = ? AND res_date >= ? AND res_date <= ?
		 ORDER BY res_date, start_time`, model.ReservationConfirmed, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

// ConfirmedStartTimes returns the start times of confirmed reservations
// on a date. The availability engine subtracts these from the expanded
// rule candidates.
func (r *ReservationRepo) ConfirmedStartTimes(ctx context.Context, date string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT start_time FROM reservations WHERE res_date = ? AND status = ?`,
		date, model.ReservationConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	taken := make(map[string]bool)
	for rows.Next() {
		var st string
		if err := rows.Scan(&st); err != nil {
			return nil, err
		}
		taken[st] = true
	}
	return taken, rows.Err()
}

func scanReservationRow(row *sql.Row) (model.Reservation, error) {
	var res model.Reservation
	var pricingID sql.NullInt64
	var note sql.NullString
	var cancelledAt sql.NullTime
	err := row.Scan(&res.ID, &res.UserID, &res.SlotID, &res.Date, &res.StartTime, &res.EndTime,
		&res.Status, &res.CreditsUsed, &pricingID, &note, &res.CreatedAt, &cancelledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return res, ErrNotFound
	}
	if err != nil {
		return res, err
	}
	applyReservationNullables(&res, pricingID, note, cancelledAt)
	return res, nil
}

func scanReservations(rows *sql.Rows) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0)
	for rows.Next() {
		var res model.Reservation
		var pricingID sql.NullInt64
		var note sql.NullString
		var cancelledAt sql.NullTime
		if err := rows.Scan(&res.ID, &res.UserID, &res.SlotID, &res.Date, &res.StartTime, &res.EndTime,
			&res.Status, &res.CreditsUsed, &pricingID, &note, &res.CreatedAt, &cancelledAt); err != nil {
			return nil, err
		}
		applyReservationNullables(&res, pricingID, note, cancelledAt)
		out = append(out, res)
	}
	return out, rows.Err()
}

func applyReservationNullables(res *model.Reservation, pricingID sql.NullInt64, note sql.NullString, cancelledAt sql.NullTime) {
	if pricingID.Valid {
		v := uint64(pricingID.Int64)
		res.PricingItemID = &v
	}
	if note.Valid {
		v := note.String
		res.Note = &v
	}
	if cancelledAt.Valid {
		v := cancelledAt.Time
		res.CancelledAt = &v
	}
}
