package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/movsar/trainer-booking/internal/model"
)

// TemplateRepo persists slot templates and their weekly pattern rows.
// A template is parent data only; materialization into concrete slots is
// the template service's job.
type TemplateRepo struct{ db *sql.DB }

func NewTemplateRepo(db *sql.DB) *TemplateRepo { return &TemplateRepo{db: db} }

// Create inserts a template together with its pattern slots in one
// transaction and populates the generated IDs.
func (r *TemplateRepo) Create(ctx context.Context, tpl *model.SlotTemplate, slots []model.TemplateSlot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	tpl.CreatedAt = time.Now().UTC().Truncate(time.Second)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO slot_templates (name, is_active, created_at) VALUES (?, ?, ?)`,
		tpl.Name, tpl.IsActive, tpl.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tpl.ID = uint64(id)
	for i := range slots {
		slots[i].TemplateID = tpl.ID
		res, err := tx.ExecContext(ctx,
			`INSERT INTO template_slots (template_id, day_of_week, start_time, end_time, duration_minutes)
			 VALUES (?, ?, ?, ?, ?)`,
			slots[i].TemplateID, slots[i].DayOfWeek, slots[i].StartTime, slots[i].EndTime, slots[i].DurationMinutes)
		if err != nil {
			return err
		}
		sid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		slots[i].ID = uint64(sid)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID fetches a template. Returns ErrNotFound when missing.
func (r *TemplateRepo) GetByID(ctx context.Context, id uint64) (model.SlotTemplate, error) {
	var tpl model.SlotTemplate
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, is_active, created_at FROM slot_templates WHERE id = ? LIMIT 1`, id).
		Scan(&tpl.ID, &tpl.Name, &tpl.IsActive, &tpl.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return tpl, ErrNotFound
	}
	return tpl, err
}

// List returns all templates, newest first.
func (r *TemplateRepo) List(ctx context.Context) ([]model.SlotTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, is_active, created_at FROM slot_templates ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SlotTemplate, 0)
	for rows.Next() {
		var tpl model.SlotTemplate
		if err := rows.Scan(&tpl.ID, &tpl.Name, &tpl.IsActive, &tpl.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, rows.Err()
}

// SlotsByTemplate returns the weekly pattern rows of a template ordered
// by weekday then start time.
func (r *TemplateRepo) SlotsByTemplate(ctx context.Context, templateID uint64) ([]model.TemplateSlot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, template_id, day_of_week, start_time, end_time, duration_minutes
		 FROM template_slots WHERE template_id = ? ORDER BY day_of_week, start_time`, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.TemplateSlot, 0)
	for rows.Next() {
		var ts model.TemplateSlot
		if err := rows.Scan(&ts.ID, &ts.TemplateID, &ts.DayOfWeek, &ts.StartTime, &ts.EndTime, &ts.DurationMinutes); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// SetActive toggles whether a template may be applied.
func (r *TemplateRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE slot_templates SET is_active = ? WHERE id = ?`, active, id)
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
