package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movsar/trainer-booking/internal/model"
	"github.com/movsar/trainer-booking/internal/repository"
	"github.com/movsar/trainer-booking/internal/service"
	"github.com/movsar/trainer-booking/internal/testutil"
)

type templateFixture struct {
	svc       *service.TemplateService
	templates *repository.TemplateRepo
	slots     *repository.SlotRepo
	ctx       context.Context
}

func newTemplateFixture(t *testing.T) templateFixture {
	db := testutil.NewDB(t)
	templates := repository.NewTemplateRepo(db)
	slots := repository.NewSlotRepo(db)
	return templateFixture{
		svc:       service.NewTemplateService(db, templates, slots),
		templates: templates,
		slots:     slots,
		ctx:       context.Background(),
	}
}

func (f templateFixture) createTemplate(t *testing.T, name string) uint64 {
	t.Helper()
	tpl := model.SlotTemplate{Name: name, IsActive: true}
	require.NoError(t, f.templates.Create(f.ctx, &tpl, []model.TemplateSlot{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", DurationMinutes: 60},
		{DayOfWeek: 1, StartTime: "10:00", EndTime: "11:00", DurationMinutes: 60},
		{DayOfWeek: 3, StartTime: "14:00", EndTime: "15:00", DurationMinutes: 60},
	}))
	return tpl.ID
}

func TestApplyTemplateMaterializesWeek(t *testing.T) {
	// GIVEN a template with Monday and Wednesday slots
	f := newTemplateFixture(t)
	tplID := f.createTemplate(t, "standard week")

	// WHEN applying it to the week of Wednesday 2026-03-04
	created, err := f.svc.ApplyTemplate(f.ctx, tplID, "2026-03-04")
	require.NoError(t, err)

	// THEN slots land on the Monday and Wednesday of that week, LOCKED
	require.Len(t, created, 3)
	assert.Equal(t, "2026-03-02", created[0].Date)
	assert.Equal(t, "09:00", created[0].StartTime)
	assert.Equal(t, "2026-03-04", created[2].Date)
	for _, s := range created {
		assert.Equal(t, model.SlotLocked, s.Status)
		require.NotNil(t, s.TemplateID)
		assert.Equal(t, tplID, *s.TemplateID)
	}
}

func TestApplyTemplateIsIdempotent(t *testing.T) {
	// GIVEN a template already applied to a week
	f := newTemplateFixture(t)
	tplID := f.createTemplate(t, "standard week")
	first, err := f.svc.ApplyTemplate(f.ctx, tplID, "2026-03-02")
	require.NoError(t, err)
	require.Len(t, first, 3)

	// WHEN applying it again to the same week
	second, err := f.svc.ApplyTemplate(f.ctx, tplID, "2026-03-02")
	require.NoError(t, err)

	// THEN nothing new is created and no error surfaces
	assert.Empty(t, second)
	all, err := f.slots.ListByDateRange(f.ctx, "2026-03-02", "2026-03-08")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestApplyTemplateSkipsOnlyOccupiedTimes(t *testing.T) {
	// GIVEN one of the template's target times already holds a slot
	f := newTemplateFixture(t)
	tplID := f.createTemplate(t, "standard week")
	require.NoError(t, f.slots.Create(f.ctx, &model.Slot{
		Date: "2026-03-02", StartTime: "09:00", EndTime: "10:00",
		DurationMinutes: 60, Status: model.SlotUnlocked,
	}))

	// WHEN applying the template
	created, err := f.svc.ApplyTemplate(f.ctx, tplID, "2026-03-02")
	require.NoError(t, err)

	// THEN only the free times are materialized and the existing slot is untouched
	assert.Len(t, created, 2)
	existing, err := f.slots.ListByDateRange(f.ctx, "2026-03-02", "2026-03-02")
	require.NoError(t, err)
	require.Len(t, existing, 2)
	assert.Equal(t, model.SlotUnlocked, existing[0].Status)
}

func TestApplyInactiveTemplateFails(t *testing.T) {
	f := newTemplateFixture(t)
	tplID := f.createTemplate(t, "retired")
	require.NoError(t, f.templates.SetActive(f.ctx, tplID, false))

	_, err := f.svc.ApplyTemplate(f.ctx, tplID, "2026-03-02")
	assert.ErrorIs(t, err, service.ErrTemplateInactive)
}

func TestApplyMissingTemplateFails(t *testing.T) {
	f := newTemplateFixture(t)
	_, err := f.svc.ApplyTemplate(f.ctx, 999, "2026-03-02")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUnlockWeekScopesToWeekAndStatus(t *testing.T) {
	// GIVEN LOCKED slots in two different weeks plus a RESERVED one
	f := newTemplateFixture(t)
	mk := func(date, start, status string) {
		require.NoError(t, f.slots.Create(f.ctx, &model.Slot{
			Date: date, StartTime: start, EndTime: "23:59",
			DurationMinutes: 60, Status: status,
		}))
	}
	mk("2026-03-02", "09:00", model.SlotLocked)
	mk("2026-03-08", "09:00", model.SlotLocked) // Sunday, still this week
	mk("2026-03-04", "10:00", model.SlotReserved)
	mk("2026-03-09", "09:00", model.SlotLocked) // next week

	// WHEN unlocking the week of 2026-03-04
	n, err := f.svc.UnlockWeek(f.ctx, "2026-03-04")
	require.NoError(t, err)

	// THEN exactly the week's LOCKED slots flip
	assert.Equal(t, int64(2), n)

	thisWeek, err := f.slots.ListByDateRange(f.ctx, "2026-03-02", "2026-03-08")
	require.NoError(t, err)
	for _, s := range thisWeek {
		if s.Date == "2026-03-04" {
			assert.Equal(t, model.SlotReserved, s.Status)
		} else {
			assert.Equal(t, model.SlotUnlocked, s.Status)
		}
	}
	nextWeek, err := f.slots.ListByDateRange(f.ctx, "2026-03-09", "2026-03-09")
	require.NoError(t, err)
	require.Len(t, nextWeek, 1)
	assert.Equal(t, model.SlotLocked, nextWeek[0].Status)
}

func TestUnlockWeekWithNothingToUnlock(t *testing.T) {
	f := newTemplateFixture(t)
	n, err := f.svc.UnlockWeek(f.ctx, "2026-03-02")
	require.NoError(t, err)
	assert.Zero(t, n)
}
