package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movsar/trainer-booking/internal/model"
	"github.com/movsar/trainer-booking/internal/queue"
	"github.com/movsar/trainer-booking/internal/repository"
	"github.com/movsar/trainer-booking/internal/service"
	"github.com/movsar/trainer-booking/internal/testutil"
)

type reminderFixture struct {
	db        *sql.DB
	scheduler *service.ReminderScheduler
	resSvc    *service.ReservationService
	sent      *[]queue.ReminderEmailEvent
	ctx       context.Context
}

func newReminderFixture(t *testing.T, now time.Time) reminderFixture {
	db := testutil.NewDB(t)
	users := repository.NewUserRepo(db)
	slots := repository.NewSlotRepo(db)
	reservations := repository.NewReservationRepo(db)
	credits := repository.NewCreditRepo(db)
	pricing := repository.NewPricingRepo(db)
	reminders := repository.NewReminderRepo(db)

	sent := &[]queue.ReminderEmailEvent{}
	scheduler := service.NewReminderScheduler(reservations, users, reminders,
		func(ctx context.Context, ev queue.ReminderEmailEvent) error {
			*sent = append(*sent, ev)
			return nil
		})
	scheduler.Now = func() time.Time { return now }

	return reminderFixture{
		db:        db,
		scheduler: scheduler,
		resSvc:    service.NewReservationService(db, users, slots, reservations, credits, pricing),
		sent:      sent,
		ctx:       context.Background(),
	}
}

func (f reminderFixture) book(t *testing.T, userID uint64, date, start, end string) model.Reservation {
	t.Helper()
	res, err := f.resSvc.CreateReservation(f.ctx, service.CreateReservationInput{
		UserID: userID, Date: date, StartTime: start, EndTime: end, DeductCredits: true,
	})
	require.NoError(t, err)
	return res
}

func (f reminderFixture) setReminderPrefs(t *testing.T, userID uint64, enabled bool, leadHours int) {
	t.Helper()
	_, err := f.db.Exec(`UPDATE users SET reminders_enabled = ?, reminder_lead_hours = ? WHERE id = ?`,
		enabled, leadHours, userID)
	require.NoError(t, err)
}

func TestRunSendsLongLeadReminderOnce(t *testing.T) {
	// GIVEN a reservation 24 hours out for a user with the default lead
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	f := newReminderFixture(t, now)
	userID := testutil.SeedUser(t, f.db, "client@example.com", model.RoleClient, 5)
	res := f.book(t, userID, "2026-03-05", "10:00", "11:00")

	// WHEN the scheduler runs
	require.NoError(t, f.scheduler.Run(f.ctx))

	// THEN exactly one 24h reminder goes out
	require.Len(t, *f.sent, 1)
	ev := (*f.sent)[0]
	assert.Equal(t, res.ID, ev.ReservationID)
	assert.Equal(t, "client@example.com", ev.To)
	assert.Equal(t, model.Reminder24h, ev.ReminderType)

	// AND a second run sends nothing more
	require.NoError(t, f.scheduler.Run(f.ctx))
	assert.Len(t, *f.sent, 1)
}

func TestRunSendsShortLeadReminder(t *testing.T) {
	// GIVEN a user who wants 1 hour notice and a session 90 minutes out
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	f := newReminderFixture(t, now)
	userID := testutil.SeedUser(t, f.db, "client@example.com", model.RoleClient, 5)
	f.setReminderPrefs(t, userID, true, 1)
	f.book(t, userID, "2026-03-04", "11:30", "12:30")

	require.NoError(t, f.scheduler.Run(f.ctx))

	require.Len(t, *f.sent, 1)
	assert.Equal(t, model.Reminder1h, (*f.sent)[0].ReminderType)
}

func TestRunSkipsOutsideWindows(t *testing.T) {
	// GIVEN sessions well outside both eligibility windows
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	f := newReminderFixture(t, now)
	userID := testutil.SeedUser(t, f.db, "client@example.com", model.RoleClient, 5)
	f.book(t, userID, "2026-03-04", "15:00", "16:00") // 5h out, long lead user
	f.book(t, userID, "2026-03-05", "21:00", "22:00") // 35h out

	require.NoError(t, f.scheduler.Run(f.ctx))
	assert.Empty(t, *f.sent)
}

func TestRunRespectsDisabledReminders(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	f := newReminderFixture(t, now)
	userID := testutil.SeedUser(t, f.db, "client@example.com", model.RoleClient, 5)
	f.setReminderPrefs(t, userID, false, 24)
	f.book(t, userID, "2026-03-05", "10:00", "11:00")

	require.NoError(t, f.scheduler.Run(f.ctx))
	assert.Empty(t, *f.sent)
}

func TestRunIgnoresCancelledReservations(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	f := newReminderFixture(t, now)
	userID := testutil.SeedUser(t, f.db, "client@example.com", model.RoleClient, 5)
	res := f.book(t, userID, "2026-03-05", "10:00", "11:00")
	_, err := f.resSvc.CancelReservation(f.ctx, res.ID, service.CancelOptions{RefundCredits: res.CreditsUsed})
	require.NoError(t, err)

	require.NoError(t, f.scheduler.Run(f.ctx))
	assert.Empty(t, *f.sent)
}

func TestSendManualValidatesAndDeduplicates(t *testing.T) {
	// GIVEN a confirmed reservation
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	f := newReminderFixture(t, now)
	userID := testutil.SeedUser(t, f.db, "client@example.com", model.RoleClient, 5)
	res := f.book(t, userID, "2026-03-05", "10:00", "11:00")

	// WHEN sending a manual reminder
	require.NoError(t, f.scheduler.SendManual(f.ctx, res.ID, model.Reminder1h))
	require.Len(t, *f.sent, 1)
	assert.Equal(t, model.Reminder1h, (*f.sent)[0].ReminderType)

	// THEN a repeat of the same type is refused
	err := f.scheduler.SendManual(f.ctx, res.ID, model.Reminder1h)
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Len(t, *f.sent, 1)

	// AND an unknown type never reaches the store
	err = f.scheduler.SendManual(f.ctx, res.ID, "2h")
	assert.ErrorIs(t, err, service.ErrUnknownReminderType)
}

func TestSendManualOnCancelledReservationFails(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	f := newReminderFixture(t, now)
	userID := testutil.SeedUser(t, f.db, "client@example.com", model.RoleClient, 5)
	res := f.book(t, userID, "2026-03-05", "10:00", "11:00")
	_, err := f.resSvc.CancelReservation(f.ctx, res.ID, service.CancelOptions{})
	require.NoError(t, err)

	err = f.scheduler.SendManual(f.ctx, res.ID, model.Reminder24h)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestManualSendBlocksLaterScheduledSend(t *testing.T) {
	// GIVEN a manual 24h reminder already sent
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	f := newReminderFixture(t, now)
	userID := testutil.SeedUser(t, f.db, "client@example.com", model.RoleClient, 5)
	res := f.book(t, userID, "2026-03-05", "10:00", "11:00")
	require.NoError(t, f.scheduler.SendManual(f.ctx, res.ID, model.Reminder24h))
	require.Len(t, *f.sent, 1)

	// WHEN the scheduler later finds the reservation in the 24h window
	require.NoError(t, f.scheduler.Run(f.ctx))

	// THEN the send-record keeps it from going out twice
	assert.Len(t, *f.sent, 1)
}
