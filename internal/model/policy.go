package model

import "time"

// Refund tiers produced by the cancellation policy engine.
const (
	TierNoPolicy      = "NO_POLICY"
	TierFullRefund    = "FULL_REFUND"
	TierPartialRefund = "PARTIAL_REFUND"
	TierNoRefund      = "NO_REFUND"
)

// Default policy values used when a trainer's policy is created lazily on
// first access.
const (
	DefaultFullRefundHours = 24
	DefaultNoRefundHours   = 0
)

// CancellationPolicy mirrors the `cancellation_policies` table.  One row
// exists per trainer; it is created lazily with defaults on first access
// and mutated only through admin settings updates.
//
// Fields:
//  ID                      – primary key identifier.
//  TrainerID               – trainer/owner the policy applies to.
//  FullRefundHours         – cancelling at least this many hours ahead
//                            refunds 100%.
//  PartialRefundHours      – threshold for the partial tier (nullable).
//  PartialRefundPercentage – percentage refunded in the partial tier
//                            (nullable, 0..100).
//  NoRefundHours           – lower bound of the no-refund tier.
//  IsActive                – inactive policies behave as "no policy"
//                            (full refund).
//  CreatedAt               – creation timestamp.
//  UpdatedAt               – last update timestamp.
type CancellationPolicy struct {
	ID                      uint64    // cancellation_policies.id
	TrainerID               uint64    // cancellation_policies.trainer_id
	FullRefundHours         int       // cancellation_policies.full_refund_hours
	PartialRefundHours      *int      // cancellation_policies.partial_refund_hours
	PartialRefundPercentage *int      // cancellation_policies.partial_refund_percentage
	NoRefundHours           int       // cancellation_policies.no_refund_hours
	IsActive                bool      // cancellation_policies.is_active
	CreatedAt               time.Time // cancellation_policies.created_at
	UpdatedAt               time.Time // cancellation_policies.updated_at
}
