package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/movsar/trainer-booking/internal/model"
)

// SlotRepo is the authoritative store for concrete, materialized
// bookable units. Slots carry their own lifecycle state (LOCKED,
// UNLOCKED, RESERVED, BLOCKED); the unique key on (slot_date,
// start_time) is what makes "insert, catch conflict" safe under
// concurrent creation.
type SlotRepo struct{ db *sql.DB }

func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

// DB exposes the underlying handle so services can open transactions
// spanning multiple repositories.
func (r *SlotRepo) DB() *sql.DB { return r.db }

const slotColumns = `id, slot_date, start_time, end_time, duration_minutes, status, assigned_user_id, template_id, note, created_at`

// Create inserts a slot and populates its generated ID. A live row at
// the same (date, start time) causes ErrDuplicateSlot via the unique
// key rather than a pre-check, so concurrent creates cannot both win.
func (r *SlotRepo) Create(ctx context.Context, slot *model.Slot) error {
	return r.create(ctx, r.db.ExecContext, slot)
}

// CreateTx is Create within an existing transaction.
func (r *SlotRepo) CreateTx(ctx context.Context, tx *sql.Tx, slot *model.Slot) error {
	return r.create(ctx, tx.ExecContext, slot)
}

type execFunc func(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

func (r *SlotRepo) create(ctx context.Context, exec execFunc, slot *model.Slot) error {
	slot.CreatedAt = time.Now().UTC().Truncate(time.Second)
	res, err := exec(ctx,
		`INSERT INTO slots (slot_date, start_time, end_time, duration_minutes, status, assigned_user_id, template_id, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		slot.Date, slot.StartTime, slot.EndTime, slot.DurationMinutes, slot.Status,
		slot.AssignedUserID, slot.TemplateID, slot.Note, slot.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateSlot
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	slot.ID = uint64(id)
	return nil
}

// GetByID fetches a slot. Returns ErrNotFound when missing.
func (r *SlotRepo) GetByID(ctx context.Context, id uint64) (model.Slot, error) {
	return scanSlotRow(r.db.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE id = ? LIMIT 1`, id))
}

// GetByIDTx is GetByID within an existing transaction.
func (r *SlotRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Slot, error) {
	return scanSlotRow(tx.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE id = ? LIMIT 1`, id))
}

// GetByDateStartTx fetches the slot at (date, start time) if one exists.
// Used by self-service booking to reuse an already materialized row.
func (r *SlotRepo) GetByDateStartTx(ctx context.Context, tx *sql.Tx, date, startTime string) (model.Slot, error) {
	return scanSlotRow(tx.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE slot_date = ? AND start_time = ? LIMIT 1`, date, startTime))
}

// ListByDateRange returns slots between the two dates inclusive, ordered
// by date then start time.
func (r *SlotRepo) ListByDateRange(ctx context.Context, from, to string) ([]model.Slot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM slots
		 WHERE slot_date >= ? AND slot_date <= ?
		 ORDER BY slot_date, start_time`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSlots(rows)
}

// UpdateStatusTx transitions a slot's status within a transaction. It
// carries no RESERVED guard because booking and cancellation use it to
// move slots into and out of RESERVED.
func (r *SlotRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	res, err := tx.ExecContext(ctx, `UPDATE slots SET status = ? WHERE id = ?`, status, id)
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

// UpdateStatus is the explicit admin toggle (lock, unlock, block). A
// RESERVED slot only leaves that state through cancellation, so the
// WHERE clause refuses to touch one and the caller gets ErrConflict.
func (r *SlotRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE slots SET status = ? WHERE id = ? AND status <> ?`,
		status, id, model.SlotReserved)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var current string
		err := r.db.QueryRowContext(ctx, `SELECT status FROM slots WHERE id = ?`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if current == model.SlotReserved {
			return ErrConflict
		}
	}
	return nil
}

// Update edits a slot's time, note and assignment. Slots in RESERVED
// state must not be edited (the linked reservation would be orphaned);
// callers check the status first and this method re-checks it in the
// WHERE clause so the guard holds under concurrency.
func (r *SlotRepo) Update(ctx context.Context, slot model.Slot) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE slots SET slot_date = ?, start_time = ?, end_time = ?, duration_minutes = ?, assigned_user_id = ?, note = ?
		 WHERE id = ? AND status <> ?`,
		slot.Date, slot.StartTime, slot.EndTime, slot.DurationMinutes, slot.AssignedUserID, slot.Note,
		slot.ID, model.SlotReserved)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateSlot
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the slot is gone or it is RESERVED. Look again to
		// report the precise condition.
		var status string
		err := r.db.QueryRowContext(ctx, `SELECT status FROM slots WHERE id = ?`, slot.ID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if status == model.SlotReserved {
			return ErrConflict
		}
	}
	return nil
}

// Delete removes a slot unless it is RESERVED. Reserved slots must have
// their reservation cancelled first.
func (r *SlotRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM slots WHERE id = ? AND status <> ?`, id, model.SlotReserved)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var status string
		err := r.db.QueryRowContext(ctx, `SELECT status FROM slots WHERE id = ?`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// UnlockRangeTx bulk-transitions every LOCKED slot between the two dates
// inclusive to UNLOCKED and returns the number of rows affected. Zero
// affected rows is a no-op, not an error.
func (r *SlotRepo) UnlockRangeTx(ctx context.Context, tx *sql.Tx, from, to string) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE slots SET status = ? WHERE slot_date >= ? AND slot_date <= ? AND status = ?`,
		model.SlotUnlocked, from, to, model.SlotLocked)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanSlotRow(row *sql.Row) (model.Slot, error) {
	var s model.Slot
	var assigned, templateID sql.NullInt64
	var note sql.NullString
	err := row.Scan(&s.ID, &s.Date, &s.StartTime, &s.EndTime, &s.DurationMinutes, &s.Status,
		&assigned, &templateID, &note, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	applySlotNullables(&s, assigned, templateID, note)
	return s, nil
}

func scanSlots(rows *sql.Rows) ([]model.Slot, error) {
	out := make([]model.Slot, 0)
	for rows.Next() {
		var s model.Slot
		var assigned, templateID sql.NullInt64
		var note sql.NullString
		if err := rows.Scan(&s.ID, &s.Date, &s.StartTime, &s.EndTime, &s.DurationMinutes, &s.Status,
			&assigned, &templateID, &note, &s.CreatedAt); err != nil {
			return nil, err
		}
		applySlotNullables(&s, assigned, templateID, note)
		out = append(out, s)
	}
	return out, rows.Err()
}

func applySlotNullables(s *model.Slot, assigned, templateID sql.NullInt64, note sql.NullString) {
	if assigned.Valid {
		v := uint64(assigned.Int64)
		s.AssignedUserID = &v
	}
	if templateID.Valid {
		v := uint64(templateID.Int64)
		s.TemplateID = &v
	}
	if note.Valid {
		v := note.String
		s.Note = &v
	}
}
