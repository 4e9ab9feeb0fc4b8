package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movsar/trainer-booking/internal/model"
	"github.com/movsar/trainer-booking/internal/repository"
	"github.com/movsar/trainer-booking/internal/service"
	"github.com/movsar/trainer-booking/internal/testutil"
)

type bookingFixture struct {
	db           *sql.DB
	svc          *service.ReservationService
	users        *repository.UserRepo
	slots        *repository.SlotRepo
	reservations *repository.ReservationRepo
	credits      *repository.CreditRepo
	ctx          context.Context
}

func newBookingFixture(t *testing.T) bookingFixture {
	db := testutil.NewDB(t)
	users := repository.NewUserRepo(db)
	slots := repository.NewSlotRepo(db)
	reservations := repository.NewReservationRepo(db)
	credits := repository.NewCreditRepo(db)
	pricing := repository.NewPricingRepo(db)
	return bookingFixture{
		db:           db,
		svc:          service.NewReservationService(db, users, slots, reservations, credits, pricing),
		users:        users,
		slots:        slots,
		reservations: reservations,
		credits:      credits,
		ctx:          context.Background(),
	}
}

func (f bookingFixture) unlockedSlot(t *testing.T, date, start, end string) uint64 {
	t.Helper()
	slot := model.Slot{Date: date, StartTime: start, EndTime: end, DurationMinutes: 60, Status: model.SlotUnlocked}
	require.NoError(t, f.slots.Create(f.ctx, &slot))
	return slot.ID
}

// checkLedger asserts that the sum of a user's ledger rows equals the
// stored balance.
func (f bookingFixture) checkLedger(t *testing.T, userID uint64) {
	t.Helper()
	sum, err := f.credits.SumByUser(f.ctx, userID)
	require.NoError(t, err)
	user, err := f.users.GetByID(f.ctx, userID)
	require.NoError(t, err)
	seeded := int64(5) // every fixture user starts with 5 un-ledgered credits
	assert.Equal(t, user.Credits, seeded+sum, "ledger sum must match stored balance")
}

func (f bookingFixture) seedClient(t *testing.T, email string) uint64 {
	return testutil.SeedUser(t, f.db, email, model.RoleClient, 5)
}

func TestCreateReservationBooksUnlockedSlot(t *testing.T) {
	// GIVEN a client with 5 credits and an UNLOCKED slot
	f := newBookingFixture(t)
	userID := f.seedClient(t, "client@example.com")
	slotID := f.unlockedSlot(t, "2026-03-04", "09:00", "10:00")

	// WHEN booking it
	res, err := f.svc.CreateReservation(f.ctx, service.CreateReservationInput{
		UserID: userID, SlotID: slotID, DeductCredits: true,
	})
	require.NoError(t, err)

	// THEN the reservation is confirmed with the slot's time copied in
	assert.Equal(t, model.ReservationConfirmed, res.Status)
	assert.Equal(t, "2026-03-04", res.Date)
	assert.Equal(t, "09:00", res.StartTime)
	assert.Equal(t, int64(1), res.CreditsUsed)

	// AND one credit left the balance, mirrored by a ledger row
	user, err := f.users.GetByID(f.ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), user.Credits)
	ledger, err := f.credits.ListByUser(f.ctx, userID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, int64(-1), ledger[0].Amount)
	assert.Equal(t, model.TxReservation, ledger[0].Type)
	require.NotNil(t, ledger[0].ReferenceID)
	assert.Equal(t, res.ID, *ledger[0].ReferenceID)

	// AND the slot is now RESERVED
	slot, err := f.slots.GetByID(f.ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotReserved, slot.Status)

	f.checkLedger(t, userID)
}

func TestCreateReservationRejectsDoubleBooking(t *testing.T) {
	// GIVEN a slot already booked by one client
	f := newBookingFixture(t)
	first := f.seedClient(t, "first@example.com")
	second := f.seedClient(t, "second@example.com")
	slotID := f.unlockedSlot(t, "2026-03-04", "09:00", "10:00")
	_, err := f.svc.CreateReservation(f.ctx, service.CreateReservationInput{
		UserID: first, SlotID: slotID, DeductCredits: true,
	})
	require.NoError(t, err)

	// WHEN a second client tries the same slot
	_, err = f.svc.CreateReservation(f.ctx, service.CreateReservationInput{
		UserID: second, SlotID: slotID, DeductCredits: true,
	})

	// THEN the booking fails and the second client keeps every credit
	assert.ErrorIs(t, err, repository.ErrSlotTaken)
	user, err := f.users.GetByID(f.ctx, second)
	require.NoError(t, err)
	assert.Equal(t, int64(5), user.Credits)
	ledger, err := f.credits.ListByUser(f.ctx, second)
	require.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestCreateReservationInsufficientCreditsRollsBack(t *testing.T) {
	// GIVEN a client with no credits
	f := newBookingFixture(t)
	userID := testutil.SeedUser(t, f.db, "broke@example.com", model.RoleClient, 0)
	slotID := f.unlockedSlot(t, "2026-03-04", "09:00", "10:00")

	// WHEN booking
	_, err := f.svc.CreateReservation(f.ctx, service.CreateReservationInput{
		UserID: userID, SlotID: slotID, DeductCredits: true,
	})

	// THEN nothing changed anywhere
	assert.ErrorIs(t, err, repository.ErrInsufficientCredits)
	slot, err := f.slots.GetByID(f.ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotUnlocked, slot.Status)
	list, err := f.reservations.ListByUser(f.ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateReservationLockedSlotConflicts(t *testing.T) {
	f := newBookingFixture(t)
	userID := f.seedClient(t, "client@example.com")
	slot := model.Slot{Date: "2026-03-04", StartTime: "09:00", EndTime: "10:00", DurationMinutes: 60, Status: model.SlotLocked}
	require.NoError(t, f.slots.Create(f.ctx, &slot))

	_, err := f.svc.CreateReservation(f.ctx, service.CreateReservationInput{
		UserID: userID, SlotID: slot.ID, DeductCredits: true,
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestStatusToggleCannotDetachConfirmedReservation(t *testing.T) {
	// GIVEN a slot booked through the normal flow
	f := newBookingFixture(t)
	userID := f.seedClient(t, "client@example.com")
	slotID := f.unlockedSlot(t, "2026-03-04", "09:00", "10:00")
	res, err := f.svc.CreateReservation(f.ctx, service.CreateReservationInput{
		UserID: userID, SlotID: slotID, DeductCredits: true,
	})
	require.NoError(t, err)

	// WHEN an admin tries to lock the slot out from under the booking
	err = f.slots.UpdateStatus(f.ctx, slotID, model.SlotLocked)

	// THEN the toggle is refused; the slot leaves RESERVED only via cancellation
	assert.ErrorIs(t, err, repository.ErrConflict)
	slot, err := f.slots.GetByID(f.ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotReserved, slot.Status)
	got, err := f.reservations.GetByID(f.ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, got.Status)

	// AND after cancellation the toggle works again
	_, err = f.svc.CancelReservation(f.ctx, res.ID, service.CancelOptions{RefundCredits: res.CreditsUsed})
	require.NoError(t, err)
	assert.NoError(t, f.slots.UpdateStatus(f.ctx, slotID, model.SlotLocked))
}

func TestCreateReservationMaterializesDerivedCandidate(t *testing.T) {
	// GIVEN no slot row at the requested time
	f := newBookingFixture(t)
	userID := f.seedClient(t, "client@example.com")

	// WHEN booking a derived availability candidate
	res, err := f.svc.CreateReservation(f.ctx, service.CreateReservationInput{
		UserID: userID, Date: "2026-03-04", StartTime: "09:00", EndTime: "10:00", DeductCredits: true,
	})
	require.NoError(t, err)

	// THEN a slot row was materialized and flipped to RESERVED
	require.NotZero(t, res.SlotID)
	slot, err := f.slots.GetByID(f.ctx, res.SlotID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotReserved, slot.Status)
	assert.Equal(t, 60, slot.DurationMinutes)

	// AND booking the same candidate again is a double booking
	other := f.seedClient(t, "other@example.com")
	_, err = f.svc.CreateReservation(f.ctx, service.CreateReservationInput{
		UserID: other, Date: "2026-03-04", StartTime: "09:00", EndTime: "10:00", DeductCredits: true,
	})
	assert.ErrorIs(t, err, repository.ErrSlotTaken)
}

func TestCreateReservationWithoutDeduction(t *testing.T) {
	// GIVEN an admin booking on behalf of a client without charging
	f := newBookingFixture(t)
	userID := f.seedClient(t, "client@example.com")
	slotID := f.unlockedSlot(t, "2026-03-04", "09:00", "10:00")

	res, err := f.svc.CreateReservation(f.ctx, service.CreateReservationInput{
		UserID: userID, SlotID: slotID, DeductCredits: false,
	})
	require.NoError(t, err)

	// THEN no credits moved and no ledger row exists
	assert.Zero(t, res.CreditsUsed)
	user, err := f.users.GetByID(f.ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), user.Credits)
	ledger, err := f.credits.ListByUser(f.ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestCancelReservationWithFullRefund(t *testing.T) {
	// GIVEN a booked reservation
	f := newBookingFixture(t)
	userID := f.seedClient(t, "client@example.com")
	slotID := f.unlockedSlot(t, "2026-03-04", "09:00", "10:00")
	res, err := f.svc.CreateReservation(f.ctx, service.CreateReservationInput{
		UserID: userID, SlotID: slotID, DeductCredits: true,
	})
	require.NoError(t, err)

	// WHEN cancelling with a full refund
	cancelled, err := f.svc.CancelReservation(f.ctx, res.ID, service.CancelOptions{
		ActorUserID: &userID, RefundCredits: res.CreditsUsed,
	})
	require.NoError(t, err)

	// THEN the reservation is cancelled, the slot reopened, the credit back
	assert.Equal(t, model.ReservationCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	slot, err := f.slots.GetByID(f.ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotUnlocked, slot.Status)

	user, err := f.users.GetByID(f.ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), user.Credits)

	ledger, err := f.credits.ListByUser(f.ctx, userID)
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	f.checkLedger(t, userID)

	// AND the slot can be booked again by someone else
	other := f.seedClient(t, "other@example.com")
	_, err = f.svc.CreateReservation(f.ctx, service.CreateReservationInput{
		UserID: other, SlotID: slotID, DeductCredits: true,
	})
	assert.NoError(t, err)
}

func TestCancelReservationWithoutRefund(t *testing.T) {
	f := newBookingFixture(t)
	userID := f.seedClient(t, "client@example.com")
	slotID := f.unlockedSlot(t, "2026-03-04", "09:00", "10:00")
	res, err := f.svc.CreateReservation(f.ctx, service.CreateReservationInput{
		UserID: userID, SlotID: slotID, DeductCredits: true,
	})
	require.NoError(t, err)

	_, err = f.svc.CancelReservation(f.ctx, res.ID, service.CancelOptions{RefundCredits: 0})
	require.NoError(t, err)

	// THEN the debit stands and only the original ledger row exists
	user, err := f.users.GetByID(f.ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), user.Credits)
	ledger, err := f.credits.ListByUser(f.ctx, userID)
	require.NoError(t, err)
	assert.Len(t, ledger, 1)
	f.checkLedger(t, userID)
}

func TestCancelTwiceFails(t *testing.T) {
	f := newBookingFixture(t)
	userID := f.seedClient(t, "client@example.com")
	slotID := f.unlockedSlot(t, "2026-03-04", "09:00", "10:00")
	res, err := f.svc.CreateReservation(f.ctx, service.CreateReservationInput{
		UserID: userID, SlotID: slotID, DeductCredits: true,
	})
	require.NoError(t, err)
	_, err = f.svc.CancelReservation(f.ctx, res.ID, service.CancelOptions{RefundCredits: res.CreditsUsed})
	require.NoError(t, err)

	// WHEN cancelling again
	_, err = f.svc.CancelReservation(f.ctx, res.ID, service.CancelOptions{RefundCredits: res.CreditsUsed})

	// THEN the second attempt is refused and no second refund happened
	assert.ErrorIs(t, err, repository.ErrAlreadyCancelled)
	user, err := f.users.GetByID(f.ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), user.Credits)
	f.checkLedger(t, userID)
}

func TestCancelSomeoneElsesReservationForbidden(t *testing.T) {
	f := newBookingFixture(t)
	owner := f.seedClient(t, "owner@example.com")
	intruder := f.seedClient(t, "intruder@example.com")
	slotID := f.unlockedSlot(t, "2026-03-04", "09:00", "10:00")
	res, err := f.svc.CreateReservation(f.ctx, service.CreateReservationInput{
		UserID: owner, SlotID: slotID, DeductCredits: true,
	})
	require.NoError(t, err)

	_, err = f.svc.CancelReservation(f.ctx, res.ID, service.CancelOptions{
		ActorUserID: &intruder, RefundCredits: res.CreditsUsed,
	})
	assert.ErrorIs(t, err, repository.ErrForbidden)

	// The reservation is still confirmed.
	got, err := f.reservations.GetByID(f.ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, got.Status)
}

func TestBookingLifecycleEndToEnd(t *testing.T) {
	// GIVEN a client with 5 credits
	f := newBookingFixture(t)
	userID := f.seedClient(t, "client@example.com")
	slotID := f.unlockedSlot(t, "2026-03-04", "09:00", "10:00")

	// WHEN booking a session
	res, err := f.svc.CreateReservation(f.ctx, service.CreateReservationInput{
		UserID: userID, SlotID: slotID, DeductCredits: true,
	})
	require.NoError(t, err)

	// THEN balance 4, slot RESERVED, one -1 ledger row
	user, err := f.users.GetByID(f.ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), user.Credits)
	slot, err := f.slots.GetByID(f.ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotReserved, slot.Status)

	// WHEN an admin cancels with a refund
	_, err = f.svc.CancelReservation(f.ctx, res.ID, service.CancelOptions{
		RefundCredits: res.CreditsUsed,
	})
	require.NoError(t, err)

	// THEN balance 5 again, slot UNLOCKED, a +1 ledger row alongside the -1
	user, err = f.users.GetByID(f.ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), user.Credits)
	slot, err = f.slots.GetByID(f.ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotUnlocked, slot.Status)
	ledger, err := f.credits.ListByUser(f.ctx, userID)
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	amounts := []int64{ledger[0].Amount, ledger[1].Amount}
	assert.Contains(t, amounts, int64(-1))
	assert.Contains(t, amounts, int64(1))

	// AND cancelling once more fails cleanly
	_, err = f.svc.CancelReservation(f.ctx, res.ID, service.CancelOptions{RefundCredits: 1})
	assert.ErrorIs(t, err, repository.ErrAlreadyCancelled)
	f.checkLedger(t, userID)
}

func TestCreateReservationWithPricingItem(t *testing.T) {
	// GIVEN a 2-credit pricing item
	f := newBookingFixture(t)
	userID := f.seedClient(t, "client@example.com")
	slotID := f.unlockedSlot(t, "2026-03-04", "09:00", "10:00")
	item := testutil.SeedPricingItem(t, f.db, "double session", 2)

	res, err := f.svc.CreateReservation(f.ctx, service.CreateReservationInput{
		UserID: userID, SlotID: slotID, PricingItemID: &item, DeductCredits: true,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), res.CreditsUsed)
	user, err := f.users.GetByID(f.ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.Credits)
	f.checkLedger(t, userID)
}
