package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/movsar/trainer-booking/internal/model"
)

// PricingRepo reads the pricing catalog. The catalog itself is owned by
// an external system; the booking core only resolves how many credits a
// pricing item costs.
type PricingRepo struct{ db *sql.DB }

func NewPricingRepo(db *sql.DB) *PricingRepo { return &PricingRepo{db: db} }

// GetByIDTx fetches an active pricing item within a transaction.
// Returns ErrNotFound for missing or inactive items.
func (r *PricingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.PricingItem, error) {
	var p model.PricingItem
	err := tx.QueryRowContext(ctx,
		`SELECT id, name, credits, is_active, created_at FROM pricing_items WHERE id = ? AND is_active = ? LIMIT 1`,
		id, true).Scan(&p.ID, &p.Name, &p.Credits, &p.IsActive, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// List returns the active catalog entries.
func (r *PricingRepo) List(ctx context.Context) ([]model.PricingItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, credits, is_active, created_at FROM pricing_items WHERE is_active = ? ORDER BY id`, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.PricingItem, 0)
	for rows.Next() {
		var p model.PricingItem
		if err := rows.Scan(&p.ID, &p.Name, &p.Credits, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
