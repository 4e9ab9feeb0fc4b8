package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movsar/trainer-booking/internal/model"
	"github.com/movsar/trainer-booking/internal/repository"
	"github.com/movsar/trainer-booking/internal/service"
	"github.com/movsar/trainer-booking/internal/testutil"
)

func intPtr(n int) *int { return &n }

func TestRefundTier(t *testing.T) {
	partial := &model.CancellationPolicy{
		FullRefundHours:         24,
		PartialRefundHours:      intPtr(12),
		PartialRefundPercentage: intPtr(50),
		NoRefundHours:           0,
		IsActive:                true,
	}

	cases := []struct {
		name       string
		policy     *model.CancellationPolicy
		hoursUntil float64
		wantPct    int
		wantTier   string
	}{
		{"nil policy always refunds fully", nil, 0.5, 100, model.TierNoPolicy},
		{"inactive policy behaves as no policy", &model.CancellationPolicy{IsActive: false}, 2, 100, model.TierNoPolicy},
		{"well before the threshold", partial, 30, 100, model.TierFullRefund},
		{"exactly at the full threshold", partial, 24, 100, model.TierFullRefund},
		{"inside the partial window", partial, 18, 50, model.TierPartialRefund},
		{"exactly at the partial threshold", partial, 12, 50, model.TierPartialRefund},
		{"below the partial threshold", partial, 5, 0, model.TierNoRefund},
		{"after the start", partial, -1, 0, model.TierNoRefund},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := service.RefundTier(tc.policy, tc.hoursUntil)
			assert.Equal(t, tc.wantPct, out.Percentage)
			assert.Equal(t, tc.wantTier, out.Tier)
		})
	}
}

func TestRefundTierWithoutPartialTier(t *testing.T) {
	// GIVEN a policy with no partial tier configured
	policy := &model.CancellationPolicy{FullRefundHours: 24, IsActive: true}

	// WHEN cancelling below the full-refund threshold
	out := service.RefundTier(policy, 18)

	// THEN there is no refund: the partial tier does not exist
	assert.Equal(t, 0, out.Percentage)
	assert.Equal(t, model.TierNoRefund, out.Tier)
}

func TestRefundAmountRoundsDown(t *testing.T) {
	assert.Equal(t, int64(1), service.RefundAmount(3, 50))
	assert.Equal(t, int64(3), service.RefundAmount(3, 100))
	assert.Equal(t, int64(0), service.RefundAmount(3, 0))
	assert.Equal(t, int64(0), service.RefundAmount(1, 50))
}

func TestCalculateRefundPreview(t *testing.T) {
	// GIVEN a confirmed reservation 18 hours ahead under a 24h/12h@50% policy
	db := testutil.NewDB(t)
	ctx := context.Background()
	policies := repository.NewPolicyRepo(db)
	reservations := repository.NewReservationRepo(db)
	users := repository.NewUserRepo(db)
	slots := repository.NewSlotRepo(db)
	credits := repository.NewCreditRepo(db)
	pricing := repository.NewPricingRepo(db)

	userID := testutil.SeedUser(t, db, "client@example.com", model.RoleClient, 10)
	item := testutil.SeedPricingItem(t, db, "double session", 2)

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	resSvc := service.NewReservationService(db, users, slots, reservations, credits, pricing)
	res, err := resSvc.CreateReservation(ctx, service.CreateReservationInput{
		UserID:        userID,
		Date:          "2026-03-03",
		StartTime:     "04:00",
		EndTime:       "05:00",
		PricingItemID: &item,
		DeductCredits: true,
	})
	require.NoError(t, err)

	const trainerID = 1
	_, err = policies.GetOrCreate(ctx, trainerID)
	require.NoError(t, err)
	require.NoError(t, policies.Update(ctx, model.CancellationPolicy{
		TrainerID:               trainerID,
		FullRefundHours:         24,
		PartialRefundHours:      intPtr(12),
		PartialRefundPercentage: intPtr(50),
		IsActive:                true,
	}))

	svc := service.NewPolicyService(policies, reservations)
	svc.Now = func() time.Time { return now }

	// WHEN previewing the refund
	preview, err := svc.CalculateRefund(ctx, trainerID, res.ID)
	require.NoError(t, err)

	// THEN the partial tier applies and half the credits come back
	assert.Equal(t, model.TierPartialRefund, preview.Tier)
	assert.Equal(t, 50, preview.Percentage)
	assert.Equal(t, int64(2), preview.CreditsUsed)
	assert.Equal(t, int64(1), preview.RefundCredits)
	assert.Equal(t, 18.0, preview.HoursUntil)
}
