package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/movsar/trainer-booking/internal/model"
)

// PolicyRepo persists cancellation policies. Exactly one policy exists
// per trainer; GetOrCreate creates it lazily with defaults on first
// access so callers never have to handle a missing policy.
type PolicyRepo struct{ db *sql.DB }

func NewPolicyRepo(db *sql.DB) *PolicyRepo { return &PolicyRepo{db: db} }

const policyColumns = `id, trainer_id, full_refund_hours, partial_refund_hours, partial_refund_percentage, no_refund_hours, is_active, created_at, updated_at`

// GetOrCreate returns the trainer's policy, inserting the default one
// (full refund at 24h, no partial tier, active) when none exists yet.
// The insert races benignly: a concurrent first access may win, in which
// case the unique trainer_id key makes this call fall through to the
// read.
func (r *PolicyRepo) GetOrCreate(ctx context.Context, trainerID uint64) (model.CancellationPolicy, error) {
	p, err := r.getByTrainer(ctx, trainerID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return p, err
	}
	now := time.Now().UTC().Truncate(time.Second)
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO cancellation_policies (trainer_id, full_refund_hours, no_refund_hours, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		trainerID, model.DefaultFullRefundHours, model.DefaultNoRefundHours, true, now, now)
	if err != nil && !isDuplicateKey(err) {
		return model.CancellationPolicy{}, err
	}
	return r.getByTrainer(ctx, trainerID)
}

// Update replaces the tunable fields of a trainer's policy.
func (r *PolicyRepo) Update(ctx context.Context, p model.CancellationPolicy) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cancellation_policies
		 SET full_refund_hours = ?, partial_refund_hours = ?, partial_refund_percentage = ?, no_refund_hours = ?, is_active = ?, updated_at = ?
		 WHERE trainer_id = ?`,
		p.FullRefundHours, p.PartialRefundHours, p.PartialRefundPercentage, p.NoRefundHours,
		p.IsActive, time.Now().UTC().Truncate(time.Second), p.TrainerID)
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

func (r *PolicyRepo) getByTrainer(ctx context.Context, trainerID uint64) (model.CancellationPolicy, error) {
	var p model.CancellationPolicy
	var partialHours, partialPct sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT `+policyColumns+` FROM cancellation_policies WHERE trainer_id = ? LIMIT 1`, trainerID).
		Scan(&p.ID, &p.TrainerID, &p.FullRefundHours, &partialHours, &partialPct,
			&p.NoRefundHours, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if partialHours.Valid {
		v := int(partialHours.Int64)
		p.PartialRefundHours = &v
	}
	if partialPct.Valid {
		v := int(partialPct.Int64)
		p.PartialRefundPercentage = &v
	}
	return p, nil
}
