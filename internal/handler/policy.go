package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/movsar/trainer-booking/internal/model"
	"github.com/movsar/trainer-booking/internal/repository"
)

// PolicyHandler manages the trainer's cancellation policy settings.
type PolicyHandler struct {
	Policies  *repository.PolicyRepo
	TrainerID uint64
}

func NewPolicyHandler(policies *repository.PolicyRepo, trainerID uint64) *PolicyHandler {
	return &PolicyHandler{Policies: policies, TrainerID: trainerID}
}

type policyResponse struct {
	TrainerID               uint64 `json:"trainer_id"`
	FullRefundHours         int    `json:"full_refund_hours"`
	PartialRefundHours      *int   `json:"partial_refund_hours,omitempty"`
	PartialRefundPercentage *int   `json:"partial_refund_percentage,omitempty"`
	NoRefundHours           int    `json:"no_refund_hours"`
	IsActive                bool   `json:"is_active"`
}

func toPolicyResponse(p model.CancellationPolicy) policyResponse {
	return policyResponse{
		TrainerID:               p.TrainerID,
		FullRefundHours:         p.FullRefundHours,
		PartialRefundHours:      p.PartialRefundHours,
		PartialRefundPercentage: p.PartialRefundPercentage,
		NoRefundHours:           p.NoRefundHours,
		IsActive:                p.IsActive,
	}
}

// GetPolicy handles GET /v1/admin/policy. A missing policy row is
// created with defaults on first read.
func (h *PolicyHandler) GetPolicy(c echo.Context) error {
	policy, err := h.Policies.GetOrCreate(c.Request().Context(), h.TrainerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(200, toPolicyResponse(policy))
}

type updatePolicyRequest struct {
	FullRefundHours         int  `json:"full_refund_hours"`
	PartialRefundHours      *int `json:"partial_refund_hours"`
	PartialRefundPercentage *int `json:"partial_refund_percentage"`
	NoRefundHours           int  `json:"no_refund_hours"`
	IsActive                bool `json:"is_active"`
}

func (req updatePolicyRequest) validate() string {
	if req.FullRefundHours < 0 || req.NoRefundHours < 0 {
		return "hour thresholds must be non-negative"
	}
	if req.NoRefundHours > req.FullRefundHours {
		return "no_refund_hours must not exceed full_refund_hours"
	}
	if (req.PartialRefundHours == nil) != (req.PartialRefundPercentage == nil) {
		return "partial_refund_hours and partial_refund_percentage must be set together"
	}
	if req.PartialRefundHours != nil {
		if *req.PartialRefundHours < req.NoRefundHours || *req.PartialRefundHours > req.FullRefundHours {
			return "partial_refund_hours must lie between no_refund_hours and full_refund_hours"
		}
		if *req.PartialRefundPercentage < 0 || *req.PartialRefundPercentage > 100 {
			return "partial_refund_percentage must be 0..100"
		}
	}
	return ""
}

// UpdatePolicy handles PUT /v1/admin/policy.
func (h *PolicyHandler) UpdatePolicy(c echo.Context) error {
	var req updatePolicyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(400, echo.Map{"error": msg})
	}
	ctx := c.Request().Context()
	if _, err := h.Policies.GetOrCreate(ctx, h.TrainerID); err != nil {
		return writeRepoError(c, err)
	}
	policy := model.CancellationPolicy{
		TrainerID:               h.TrainerID,
		FullRefundHours:         req.FullRefundHours,
		PartialRefundHours:      req.PartialRefundHours,
		PartialRefundPercentage: req.PartialRefundPercentage,
		NoRefundHours:           req.NoRefundHours,
		IsActive:                req.IsActive,
	}
	if err := h.Policies.Update(ctx, policy); err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(200, toPolicyResponse(policy))
}
