package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/movsar/trainer-booking/internal/model"
	"github.com/movsar/trainer-booking/internal/repository"
)

// ErrInvalidAmount is returned for purchases of zero or negative
// credits and for zero-value admin adjustments.
var ErrInvalidAmount = errors.New("invalid credit amount")

// CreditService owns the balance-affecting operations that do not go
// through the reservation engine: purchases reported by the payment
// gateway webhook and manual admin adjustments. Each operation applies
// the atomic balance delta and appends its ledger row in one
// transaction.
type CreditService struct {
	DB      *sql.DB
	Users   *repository.UserRepo
	Credits *repository.CreditRepo
}

func NewCreditService(db *sql.DB, users *repository.UserRepo, credits *repository.CreditRepo) *CreditService {
	return &CreditService{DB: db, Users: users, Credits: credits}
}

// Purchase credits a completed payment to the user. The gateway has
// already settled the money side; this only records the credits.
func (s *CreditService) Purchase(ctx context.Context, userID uint64, amount int64, note string) (model.CreditTransaction, error) {
	if amount <= 0 {
		return model.CreditTransaction{}, ErrInvalidAmount
	}
	return s.apply(ctx, userID, amount, model.TxPurchase, note)
}

// AdminAdjust applies a signed manual correction. The delta may be
// negative but may not take the balance below zero.
func (s *CreditService) AdminAdjust(ctx context.Context, userID uint64, amount int64, note string) (model.CreditTransaction, error) {
	if amount == 0 {
		return model.CreditTransaction{}, ErrInvalidAmount
	}
	return s.apply(ctx, userID, amount, model.TxAdminAdjustment, note)
}

func (s *CreditService) apply(ctx context.Context, userID uint64, amount int64, txType, note string) (model.CreditTransaction, error) {
	var out model.CreditTransaction
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
	if err := s.Users.AdjustCreditsTx(ctx, tx, userID, amount); err != nil {
		return out, err
	}
	entry := model.CreditTransaction{
		UserID: userID,
		Amount: amount,
		Type:   txType,
		Note:   note,
	}
	if err := s.Credits.AppendTx(ctx, tx, &entry); err != nil {
		return out, err
	}
	if err := tx.Commit(); err != nil {
		return out, err
	}
	committed = true
	return entry, nil
}

// Balance returns the user's stored credit balance.
func (s *CreditService) Balance(ctx context.Context, userID uint64) (int64, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return u.Credits, nil
}
