package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/movsar/trainer-booking/internal/model"
	"github.com/movsar/trainer-booking/internal/repository"
	"github.com/movsar/trainer-booking/internal/utils"
)

// ReservationService orchestrates slot selection, the credit debit, the
// ledger write and the slot-state transition as one transactional unit,
// and the reverse for cancellation. A crash or error at any step rolls
// the whole unit back; there is no state where a user is debited without
// a reservation or a slot is RESERVED without a debit.
type ReservationService struct {
	DB           *sql.DB
	Users        *repository.UserRepo
	Slots        *repository.SlotRepo
	Reservations *repository.ReservationRepo
	Credits      *repository.CreditRepo
	Pricing      *repository.PricingRepo
}

func NewReservationService(db *sql.DB, users *repository.UserRepo, slots *repository.SlotRepo,
	reservations *repository.ReservationRepo, credits *repository.CreditRepo, pricing *repository.PricingRepo) *ReservationService {
	return &ReservationService{DB: db, Users: users, Slots: slots, Reservations: reservations, Credits: credits, Pricing: pricing}
}

// CreateReservationInput carries the parameters of a booking. SlotID
// zero means the caller is booking a derived availability candidate; the
// service then materializes (or reuses) the slot row at (Date,
// StartTime) so both booking paths share one reservation-target
// identity.
type CreateReservationInput struct {
	UserID        uint64
	SlotID        uint64
	Date          string
	StartTime     string
	EndTime       string
	PricingItemID *uint64
	Note          *string

	// DeductCredits false makes the booking free (admin path): no
	// balance delta and no ledger entry. Self-service bookings always
	// deduct.
	DeductCredits bool
}

// CreateReservation executes the booking as a single atomic unit:
// resolve cost, verify balance, insert the reservation (the store's
// unique key arbitrates concurrent attempts), flip the slot to
// RESERVED, apply the atomic balance delta and append the ledger row.
func (s *ReservationService) CreateReservation(ctx context.Context, in CreateReservationInput) (model.Reservation, error) {
	var out model.Reservation
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	user, err := s.Users.GetByIDTx(ctx, tx, in.UserID)
	if err != nil {
		return out, err
	}

	var required int64
	if in.DeductCredits {
		required = 1
		if in.PricingItemID != nil {
			item, err := s.Pricing.GetByIDTx(ctx, tx, *in.PricingItemID)
			if err != nil {
				return out, err
			}
			required = item.Credits
		}
		if user.Credits < required {
			return out, repository.ErrInsufficientCredits
		}
	}

	slot, err := s.resolveSlot(ctx, tx, in)
	if err != nil {
		return out, err
	}

	res := model.Reservation{
		UserID:        in.UserID,
		SlotID:        slot.ID,
		Date:          slot.Date,
		StartTime:     slot.StartTime,
		EndTime:       slot.EndTime,
		CreditsUsed:   required,
		PricingItemID: in.PricingItemID,
		Note:          in.Note,
	}
	if err := s.Reservations.CreateTx(ctx, tx, &res); err != nil {
		return out, err
	}
	if err := s.Slots.UpdateStatusTx(ctx, tx, slot.ID, model.SlotReserved); err != nil {
		return out, err
	}
	if required > 0 {
		if err := s.Users.AdjustCreditsTx(ctx, tx, in.UserID, -required); err != nil {
			return out, err
		}
		entry := model.CreditTransaction{
			UserID:      in.UserID,
			Amount:      -required,
			Type:        model.TxReservation,
			ReferenceID: &res.ID,
			Note:        "reservation " + res.Date + " " + res.StartTime,
		}
		if err := s.Credits.AppendTx(ctx, tx, &entry); err != nil {
			return out, err
		}
	}
	if err := tx.Commit(); err != nil {
		return out, err
	}
	committed = true
	return res, nil
}

// resolveSlot loads the reservation target. An explicit slot id must
// reference an UNLOCKED slot; a derived candidate reuses the slot row at
// (date, start time) or materializes a fresh UNLOCKED one. Concurrent
// materialization of the same candidate is arbitrated by the slots
// unique key.
func (s *ReservationService) resolveSlot(ctx context.Context, tx *sql.Tx, in CreateReservationInput) (model.Slot, error) {
	if in.SlotID != 0 {
		slot, err := s.Slots.GetByIDTx(ctx, tx, in.SlotID)
		if err != nil {
			return slot, err
		}
		switch slot.Status {
		case model.SlotUnlocked:
			return slot, nil
		case model.SlotReserved:
			return slot, repository.ErrSlotTaken
		default: // LOCKED or BLOCKED
			return slot, repository.ErrConflict
		}
	}

	slot, err := s.Slots.GetByDateStartTx(ctx, tx, in.Date, in.StartTime)
	if err == nil {
		switch slot.Status {
		case model.SlotUnlocked:
			return slot, nil
		case model.SlotReserved:
			return slot, repository.ErrSlotTaken
		default:
			return slot, repository.ErrConflict
		}
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return slot, err
	}

	start, errS := utils.ParseClock(in.StartTime)
	end, errE := utils.ParseClock(in.EndTime)
	duration := 0
	if errS == nil && errE == nil && end > start {
		duration = end - start
	}
	slot = model.Slot{
		Date:            in.Date,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		DurationMinutes: duration,
		Status:          model.SlotUnlocked,
	}
	if err := s.Slots.CreateTx(ctx, tx, &slot); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlot) {
			// Lost the materialization race; the winner holds the row.
			return slot, repository.ErrSlotTaken
		}
		return slot, err
	}
	return slot, nil
}

// CancelOptions parameterizes a cancellation. ActorUserID non-nil
// restricts the cancel to the reservation's owner (self-service path);
// nil means an admin acting on any reservation. RefundCredits is the
// concrete amount to return: callers pass reservation.CreditsUsed for a
// full refund, a policy-derived amount for a partial one, or zero for
// none.
type CancelOptions struct {
	ActorUserID   *uint64
	RefundCredits int64
}

// CancelReservation flips the reservation to cancelled, returns its slot
// to UNLOCKED and, when a refund is due, applies the balance delta plus
// the REFUND ledger row, all in one transaction.
func (s *ReservationService) CancelReservation(ctx context.Context, reservationID uint64, opts CancelOptions) (model.Reservation, error) {
	var out model.Reservation
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.Reservations.GetByIDTx(ctx, tx, reservationID)
	if err != nil {
		return out, err
	}
	if opts.ActorUserID != nil && res.UserID != *opts.ActorUserID {
		return out, repository.ErrForbidden
	}
	now := time.Now().UTC()
	if err := s.Reservations.CancelTx(ctx, tx, res.ID, now); err != nil {
		return out, err
	}
	if res.SlotID != 0 {
		if err := s.Slots.UpdateStatusTx(ctx, tx, res.SlotID, model.SlotUnlocked); err != nil {
			// The slot may have been deleted after an earlier admin edit;
			// a missing slot must not block the cancellation itself.
			if !errors.Is(err, repository.ErrNotFound) {
				return out, err
			}
		}
	}
	if opts.RefundCredits > 0 {
		if err := s.Users.AdjustCreditsTx(ctx, tx, res.UserID, opts.RefundCredits); err != nil {
			return out, err
		}
		entry := model.CreditTransaction{
			UserID:      res.UserID,
			Amount:      opts.RefundCredits,
			Type:        model.TxRefund,
			ReferenceID: &res.ID,
			Note:        "refund for reservation " + res.Date + " " + res.StartTime,
		}
		if err := s.Credits.AppendTx(ctx, tx, &entry); err != nil {
			return out, err
		}
	}
	if err := tx.Commit(); err != nil {
		return out, err
	}
	committed = true

	res.Status = model.ReservationCancelled
	cancelledAt := now.Truncate(time.Second)
	res.CancelledAt = &cancelledAt
	return res, nil
}
