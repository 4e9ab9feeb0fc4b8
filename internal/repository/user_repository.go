package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/movsar/trainer-booking/internal/model"
)

// UserRepo reads user records owned by the authentication subsystem and
// applies atomic credit deltas. It never writes profile fields.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, email, first_name, role, credits, reminders_enabled, reminder_lead_hours, is_active, created_at, updated_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var firstName sql.NullString
	err := row.Scan(&u.ID, &u.Email, &firstName, &u.Role, &u.Credits,
		&u.RemindersEnabled, &u.ReminderLeadHours, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	if firstName.Valid {
		fn := firstName.String
		u.FirstName = &fn
	}
	return u, nil
}

// GetByID fetches a user by id. Returns ErrNotFound when no row exists.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id))
}

// GetByIDTx is GetByID within an existing transaction.
func (r *UserRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.User, error) {
	return scanUser(tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id))
}

// ListByIDs batch-loads users for the given ids. Missing ids are simply
// absent from the result map; callers decide whether that matters.
func (r *UserRepo) ListByIDs(ctx context.Context, ids []uint64) (map[uint64]model.User, error) {
	out := make(map[uint64]model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id IN (`
	args := make([]interface{}, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ")"
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var u model.User
		var firstName sql.NullString
		if err := rows.Scan(&u.ID, &u.Email, &firstName, &u.Role, &u.Credits,
			&u.RemindersEnabled, &u.ReminderLeadHours, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		if firstName.Valid {
			fn := firstName.String
			u.FirstName = &fn
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

// AdjustCreditsTx applies a signed credit delta as a single atomic UPDATE
// so concurrent debits for the same user cannot interleave a stale
// read-modify-write. Debits are guarded in the WHERE clause: when the
// balance cannot absorb the delta no row is updated and
// ErrInsufficientCredits is returned. The caller owns the transaction.
func (r *UserRepo) AdjustCreditsTx(ctx context.Context, tx *sql.Tx, userID uint64, delta int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET credits = credits + ? WHERE id = ? AND credits + ? >= 0`,
		delta, userID, delta)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing user from a balance shortfall.
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		return ErrInsufficientCredits
	}
	return nil
}
