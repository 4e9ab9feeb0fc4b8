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

func TestPurchaseAddsCreditsAndLedgerRow(t *testing.T) {
	// GIVEN a client with an empty balance
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := repository.NewUserRepo(db)
	credits := repository.NewCreditRepo(db)
	svc := service.NewCreditService(db, users, credits)
	userID := testutil.SeedUser(t, db, "client@example.com", model.RoleClient, 0)

	// WHEN purchasing 10 credits
	entry, err := svc.Purchase(ctx, userID, 10, "payment abc-123")
	require.NoError(t, err)

	// THEN the balance and the ledger agree
	assert.Equal(t, int64(10), entry.Amount)
	assert.Equal(t, model.TxPurchase, entry.Type)
	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)
	sum, err := credits.SumByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), sum)
}

func TestPurchaseRejectsNonPositiveAmount(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewCreditService(db, repository.NewUserRepo(db), repository.NewCreditRepo(db))
	userID := testutil.SeedUser(t, db, "client@example.com", model.RoleClient, 0)

	_, err := svc.Purchase(context.Background(), userID, 0, "")
	assert.ErrorIs(t, err, service.ErrInvalidAmount)
	_, err = svc.Purchase(context.Background(), userID, -3, "")
	assert.ErrorIs(t, err, service.ErrInvalidAmount)
}

func TestPurchaseForUnknownUserFails(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewCreditService(db, repository.NewUserRepo(db), repository.NewCreditRepo(db))

	_, err := svc.Purchase(context.Background(), 999, 10, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAdminAdjustBothDirections(t *testing.T) {
	// GIVEN a client with 5 credits
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := repository.NewUserRepo(db)
	credits := repository.NewCreditRepo(db)
	svc := service.NewCreditService(db, users, credits)
	userID := testutil.SeedUser(t, db, "client@example.com", model.RoleClient, 5)

	// WHEN granting 3 and revoking 2
	_, err := svc.AdminAdjust(ctx, userID, 3, "goodwill")
	require.NoError(t, err)
	entry, err := svc.AdminAdjust(ctx, userID, -2, "correction")
	require.NoError(t, err)
	assert.Equal(t, model.TxAdminAdjustment, entry.Type)

	// THEN the balance reflects both and the ledger carries both signs
	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), balance)
	ledger, err := credits.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, ledger, 2)
}

func TestAdminAdjustCannotGoNegative(t *testing.T) {
	// GIVEN a client with 2 credits
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := repository.NewUserRepo(db)
	credits := repository.NewCreditRepo(db)
	svc := service.NewCreditService(db, users, credits)
	userID := testutil.SeedUser(t, db, "client@example.com", model.RoleClient, 2)

	// WHEN revoking more than the balance holds
	_, err := svc.AdminAdjust(ctx, userID, -5, "too much")

	// THEN the adjustment is refused and nothing was written
	assert.ErrorIs(t, err, repository.ErrInsufficientCredits)
	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), balance)
	ledger, err := credits.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestAdminAdjustRejectsZero(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewCreditService(db, repository.NewUserRepo(db), repository.NewCreditRepo(db))
	userID := testutil.SeedUser(t, db, "client@example.com", model.RoleClient, 5)

	_, err := svc.AdminAdjust(context.Background(), userID, 0, "noop")
	assert.ErrorIs(t, err, service.ErrInvalidAmount)
}
