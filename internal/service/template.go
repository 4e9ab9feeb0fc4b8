package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/movsar/trainer-booking/internal/model"
	"github.com/movsar/trainer-booking/internal/repository"
	"github.com/movsar/trainer-booking/internal/utils"
)

// ErrTemplateInactive is returned when applying a deactivated template.
var ErrTemplateInactive = errors.New("template is not active")

// TemplateService materializes weekly slot templates into concrete slot
// rows and bulk-unlocks a week's held slots. Application is idempotent:
// candidates whose (date, start time) is already occupied by a live slot
// are skipped, so reapplying a template never duplicates or errors.
type TemplateService struct {
	DB        *sql.DB
	Templates *repository.TemplateRepo
	Slots     *repository.SlotRepo
}

func NewTemplateService(db *sql.DB, templates *repository.TemplateRepo, slots *repository.SlotRepo) *TemplateService {
	return &TemplateService{DB: db, Templates: templates, Slots: slots}
}

// ApplyTemplate materializes the template into the week containing
// weekStartDate (normalized to its Monday). New slots are created LOCKED
// with the template id recorded for traceability. It returns only the
// newly created slots.
func (s *TemplateService) ApplyTemplate(ctx context.Context, templateID uint64, weekStartDate string) ([]model.Slot, error) {
	tpl, err := s.Templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !tpl.IsActive {
		return nil, ErrTemplateInactive
	}
	pattern, err := s.Templates.SlotsByTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	monday, err := utils.MondayOf(weekStartDate)
	if err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	created := make([]model.Slot, 0, len(pattern))
	for _, ts := range pattern {
		date, err := utils.AddDays(monday, ts.DayOfWeek-1)
		if err != nil {
			return nil, err
		}
		slot := model.Slot{
			Date:            date,
			StartTime:       ts.StartTime,
			EndTime:         ts.EndTime,
			DurationMinutes: ts.DurationMinutes,
			Status:          model.SlotLocked,
			TemplateID:      &tpl.ID,
		}
		if err := s.Slots.CreateTx(ctx, tx, &slot); err != nil {
			if errors.Is(err, repository.ErrDuplicateSlot) {
				continue // already materialized, idempotent skip
			}
			return nil, err
		}
		created = append(created, slot)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return created, nil
}

// UnlockWeek transitions every LOCKED slot in the week containing
// weekStartDate (Monday through Sunday) to UNLOCKED and returns the
// number of slots affected. Zero is a valid no-op result.
func (s *TemplateService) UnlockWeek(ctx context.Context, weekStartDate string) (int64, error) {
	monday, err := utils.MondayOf(weekStartDate)
	if err != nil {
		return 0, err
	}
	sunday, err := utils.AddDays(monday, 6)
	if err != nil {
		return 0, err
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	n, err := s.Slots.UnlockRangeTx(ctx, tx, monday, sunday)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return n, nil
}
