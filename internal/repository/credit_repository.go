package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/movsar/trainer-booking/internal/model"
)

// CreditRepo provides access to the append-only credit ledger. There is
// no Update and no Delete; corrections are new rows with the opposite
// sign. Every write happens inside the same transaction as the matching
// users.credits delta so the ledger and the denormalized balance cannot
// diverge on a crash.
type CreditRepo struct{ db *sql.DB }

func NewCreditRepo(db *sql.DB) *CreditRepo { return &CreditRepo{db: db} }

// AppendTx appends a ledger entry within an existing transaction and
// populates the generated ID.
func (r *CreditRepo) AppendTx(ctx context.Context, tx *sql.Tx, entry *model.CreditTransaction) error {
	entry.CreatedAt = time.Now().UTC().Truncate(time.Second)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO credit_transactions (user_id, amount, tx_type, reference_id, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.UserID, entry.Amount, entry.Type, entry.ReferenceID, entry.Note, entry.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = uint64(id)
	return nil
}

// ListByUser returns the user's ledger, newest first.
func (r *CreditRepo) ListByUser(ctx context.Context, userID uint64) ([]model.CreditTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount, tx_type, reference_id, note, created_at
		 FROM credit_transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.CreditTransaction, 0)
	for rows.Next() {
		var e model.CreditTransaction
		var ref sql.NullInt64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Type, &ref, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		if ref.Valid {
			v := uint64(ref.Int64)
			e.ReferenceID = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SumByUser returns the signed total of the user's ledger. It exists so
// tests and consistency checks can compare the ledger against the
// denormalized users.credits value.
func (r *CreditRepo) SumByUser(ctx context.Context, userID uint64) (int64, error) {
	var sum sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(amount) FROM credit_transactions WHERE user_id = ?`, userID).Scan(&sum)
	if err != nil {
		return 0, err
	}
	return sum.Int64, nil
}
