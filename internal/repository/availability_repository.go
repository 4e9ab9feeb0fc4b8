package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/movsar/trainer-booking/internal/model"
)

// AvailabilityRepo provides CRUD operations for availability rules.
// Rules are the abstract patterns the availability engine expands into
// bookable candidates; they are maintained by admins only. The
// days_of_week set is stored as a CSV string column and converted to a
// []int at this boundary.
type AvailabilityRepo struct{ db *sql.DB }

func NewAvailabilityRepo(db *sql.DB) *AvailabilityRepo { return &AvailabilityRepo{db: db} }

const ruleColumns = `id, owner_id, name, days_of_week, start_time, end_time, slot_duration_minutes, is_recurring, specific_date, is_blocked, created_at`

// Create inserts a rule and populates its generated ID and CreatedAt.
func (r *AvailabilityRepo) Create(ctx context.Context, rule *model.AvailabilityRule) error {
	rule.CreatedAt = time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO availability_rules
		 (owner_id, name, days_of_week, start_time, end_time, slot_duration_minutes, is_recurring, specific_date, is_blocked, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.OwnerID, rule.Name, joinDays(rule.DaysOfWeek), rule.StartTime, rule.EndTime,
		rule.SlotDurationMinutes, rule.IsRecurring, rule.SpecificDate, rule.IsBlocked, rule.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rule.ID = uint64(id)
	return nil
}

// GetByID fetches a single rule. Returns ErrNotFound when missing.
func (r *AvailabilityRepo) GetByID(ctx context.Context, id uint64) (model.AvailabilityRule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM availability_rules WHERE id = ? LIMIT 1`, id)
	return scanRuleRow(row)
}

// Update replaces the editable fields of a rule.
func (r *AvailabilityRepo) Update(ctx context.Context, rule model.AvailabilityRule) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE availability_rules
		 SET owner_id = ?, name = ?, days_of_week = ?, start_time = ?, end_time = ?,
		     slot_duration_minutes = ?, is_recurring = ?, specific_date = ?, is_blocked = ?
		 WHERE id = ?`,
		rule.OwnerID, rule.Name, joinDays(rule.DaysOfWeek), rule.StartTime, rule.EndTime,
		rule.SlotDurationMinutes, rule.IsRecurring, rule.SpecificDate, rule.IsBlocked, rule.ID)
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

// Delete removes a rule. Deleting a rule has no effect on reservations
// already made against it; only future availability changes.
func (r *AvailabilityRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM availability_rules WHERE id = ?`, id)
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

// List returns all rules ordered by start time for the admin UI.
func (r *AvailabilityRepo) List(ctx context.Context) ([]model.AvailabilityRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM availability_rules ORDER BY start_time, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRules(rows)
}

// RecurringForWeekday returns recurring availability rules (is_blocked
// false) whose days_of_week set contains the given ISO weekday. The CSV
// column is matched in Go rather than SQL so the query stays portable.
func (r *AvailabilityRepo) RecurringForWeekday(ctx context.Context, weekday int) ([]model.AvailabilityRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM availability_rules
		 WHERE is_recurring = ? AND is_blocked = ?`, true, false)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	all, err := scanRules(rows)
	if err != nil {
		return nil, err
	}
	out := make([]model.AvailabilityRule, 0, len(all))
	for _, rule := range all {
		for _, d := range rule.DaysOfWeek {
			if d == weekday {
				out = append(out, rule)
				break
			}
		}
	}
	return out, nil
}

// ForSpecificDate returns one-off rules for the given date, filtered by
// their blocked flag. Blocked rules are the carve-out list the engine
// subtracts from the expanded candidates.
func (r *AvailabilityRepo) ForSpecificDate(ctx context.Context, date string, blocked bool) ([]model.AvailabilityRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM availability_rules
		 WHERE specific_date = ? AND is_blocked = ?`, date, blocked)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRules(rows)
}

func scanRuleRow(row *sql.Row) (model.AvailabilityRule, error) {
	var rule model.AvailabilityRule
	var ownerID sql.NullInt64
	var name, days, specificDate sql.NullString
	err := row.Scan(&rule.ID, &ownerID, &name, &days, &rule.StartTime, &rule.EndTime,
		&rule.SlotDurationMinutes, &rule.IsRecurring, &specificDate, &rule.IsBlocked, &rule.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rule, ErrNotFound
	}
	if err != nil {
		return rule, err
	}
	applyRuleNullables(&rule, ownerID, name, days, specificDate)
	return rule, nil
}

func scanRules(rows *sql.Rows) ([]model.AvailabilityRule, error) {
	out := make([]model.AvailabilityRule, 0)
	for rows.Next() {
		var rule model.AvailabilityRule
		var ownerID sql.NullInt64
		var name, days, specificDate sql.NullString
		if err := rows.Scan(&rule.ID, &ownerID, &name, &days, &rule.StartTime, &rule.EndTime,
			&rule.SlotDurationMinutes, &rule.IsRecurring, &specificDate, &rule.IsBlocked, &rule.CreatedAt); err != nil {
			return nil, err
		}
		applyRuleNullables(&rule, ownerID, name, days, specificDate)
		out = append(out, rule)
	}
	return out, rows.Err()
}

func applyRuleNullables(rule *model.AvailabilityRule, ownerID sql.NullInt64, name, days, specificDate sql.NullString) {
	if ownerID.Valid {
		v := uint64(ownerID.Int64)
		rule.OwnerID = &v
	}
	if name.Valid {
		v := name.String
		rule.Name = &v
	}
	if specificDate.Valid {
		v := specificDate.String
		rule.SpecificDate = &v
	}
	if days.Valid {
		rule.DaysOfWeek = splitDays(days.String)
	}
}

// joinDays serializes an ISO weekday set to the CSV column format.
func joinDays(days []int) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(d))
	}
	return strings.Join(parts, ",")
}

// splitDays parses the CSV column back into a weekday slice, dropping
// anything that is not an integer between 1 and 7.
func splitDays(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 1 || n > 7 {
			continue
		}
		out = append(out, n)
	}
	return out
}
