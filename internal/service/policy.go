package service

import (
	"context"
	"time"

	"github.com/movsar/trainer-booking/internal/model"
	"github.com/movsar/trainer-booking/internal/repository"
	"github.com/movsar/trainer-booking/internal/utils"
)

// RefundOutcome is the result of evaluating a cancellation policy: the
// percentage of credits returned and the named tier it came from.
type RefundOutcome struct {
	Percentage int    `json:"percentage"`
	Tier       string `json:"tier"`
}

// RefundPreview extends the outcome with the concrete credit amount for
// one reservation. Previews are side-effect free and safe to recompute.
type RefundPreview struct {
	ReservationID uint64  `json:"reservation_id"`
	CreditsUsed   int64   `json:"credits_used"`
	RefundCredits int64   `json:"refund_credits"`
	Percentage    int     `json:"percentage"`
	Tier          string  `json:"tier"`
	HoursUntil    float64 `json:"hours_until"`
}

// PolicyService evaluates cancellation policies. RefundTier itself is a
// pure function; the service adds the repository plumbing needed to
// preview a refund for a stored reservation.
type PolicyService struct {
	Policies     *repository.PolicyRepo
	Reservations *repository.ReservationRepo

	// Now is the clock used for hours-until computations; tests pin it.
	Now func() time.Time
}

func NewPolicyService(policies *repository.PolicyRepo, reservations *repository.ReservationRepo) *PolicyService {
	return &PolicyService{Policies: policies, Reservations: reservations, Now: time.Now}
}

// RefundTier maps a policy and a time-until-appointment to a refund
// percentage and tier. A nil or inactive policy means no policy applies
// and the refund is always full. The partial tier only exists when both
// its hours threshold and its percentage are configured.
func RefundTier(policy *model.CancellationPolicy, hoursUntil float64) RefundOutcome {
	if policy == nil || !policy.IsActive {
		return RefundOutcome{Percentage: 100, Tier: model.TierNoPolicy}
	}
	if hoursUntil >= float64(policy.FullRefundHours) {
		return RefundOutcome{Percentage: 100, Tier: model.TierFullRefund}
	}
	if policy.PartialRefundHours != nil && policy.PartialRefundPercentage != nil &&
		hoursUntil >= float64(*policy.PartialRefundHours) {
		return RefundOutcome{Percentage: *policy.PartialRefundPercentage, Tier: model.TierPartialRefund}
	}
	return RefundOutcome{Percentage: 0, Tier: model.TierNoRefund}
}

// RefundAmount applies a percentage to the credits originally debited,
// rounding down.
func RefundAmount(creditsUsed int64, percentage int) int64 {
	return creditsUsed * int64(percentage) / 100
}

// CalculateRefund previews the refund the trainer's policy would grant
// for cancelling the reservation right now.
func (s *PolicyService) CalculateRefund(ctx context.Context, trainerID, reservationID uint64) (RefundPreview, error) {
	res, err := s.Reservations.GetByID(ctx, reservationID)
	if err != nil {
		return RefundPreview{}, err
	}
	policy, err := s.Policies.GetOrCreate(ctx, trainerID)
	if err != nil {
		return RefundPreview{}, err
	}
	startAt, err := utils.StartDateTime(res.Date, res.StartTime)
	if err != nil {
		return RefundPreview{}, err
	}
	hours := utils.HoursUntil(s.Now().UTC(), startAt)
	outcome := RefundTier(&policy, hours)
	return RefundPreview{
		ReservationID: res.ID,
		CreditsUsed:   res.CreditsUsed,
		RefundCredits: RefundAmount(res.CreditsUsed, outcome.Percentage),
		Percentage:    outcome.Percentage,
		Tier:          outcome.Tier,
		HoursUntil:    hours,
	}, nil
}
