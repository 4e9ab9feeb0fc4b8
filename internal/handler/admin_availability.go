package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/movsar/trainer-booking/internal/model"
	"github.com/movsar/trainer-booking/internal/repository"
)

// AdminAvailabilityHandler manages availability rules. Rules are the
// admin-maintained source the availability feed is derived from.
type AdminAvailabilityHandler struct {
	Rules *repository.AvailabilityRepo
}

func NewAdminAvailabilityHandler(rules *repository.AvailabilityRepo) *AdminAvailabilityHandler {
	return &AdminAvailabilityHandler{Rules: rules}
}

type availabilityRuleRequest struct {
	Name                *string `json:"name"`
	DaysOfWeek          []int   `json:"days_of_week"`
	StartTime           string  `json:"start_time"`
	EndTime             string  `json:"end_time"`
	SlotDurationMinutes int     `json:"slot_duration_minutes"`
	IsRecurring         bool    `json:"is_recurring"`
	SpecificDate        *string `json:"specific_date"`
	IsBlocked           bool    `json:"is_blocked"`
}

type availabilityRuleResponse struct {
	ID                  uint64  `json:"id"`
	Name                *string `json:"name,omitempty"`
	DaysOfWeek          []int   `json:"days_of_week,omitempty"`
	StartTime           string  `json:"start_time"`
	EndTime             string  `json:"end_time"`
	SlotDurationMinutes int     `json:"slot_duration_minutes"`
	IsRecurring         bool    `json:"is_recurring"`
	SpecificDate        *string `json:"specific_date,omitempty"`
	IsBlocked           bool    `json:"is_blocked"`
}

func toRuleResponse(r model.AvailabilityRule) availabilityRuleResponse {
	return availabilityRuleResponse{
		ID:                  r.ID,
		Name:                r.Name,
		DaysOfWeek:          r.DaysOfWeek,
		StartTime:           r.StartTime,
		EndTime:             r.EndTime,
		SlotDurationMinutes: r.SlotDurationMinutes,
		IsRecurring:         r.IsRecurring,
		SpecificDate:        r.SpecificDate,
		IsBlocked:           r.IsBlocked,
	}
}

func (req availabilityRuleRequest) validate() string {
	if !validClock(req.StartTime) || !validClock(req.EndTime) {
		return "start_time and end_time must be HH:MM"
	}
	if req.StartTime >= req.EndTime {
		return "start_time must be before end_time"
	}
	if req.SlotDurationMinutes <= 0 {
		return "slot_duration_minutes must be positive"
	}
	if req.IsRecurring {
		if len(req.DaysOfWeek) == 0 {
			return "recurring rules need days_of_week"
		}
		for _, d := range req.DaysOfWeek {
			if d < 1 || d > 7 {
				return "days_of_week values must be 1..7"
			}
		}
	} else if req.SpecificDate == nil || !validDate(*req.SpecificDate) {
		return "one-off rules need specific_date as YYYY-MM-DD"
	}
	return ""
}

// CreateRule handles POST /v1/admin/availability-rules.
func (h *AdminAvailabilityHandler) CreateRule(c echo.Context) error {
	var req availabilityRuleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(400, echo.Map{"error": msg})
	}
	rule := model.AvailabilityRule{
		Name:                req.Name,
		DaysOfWeek:          req.DaysOfWeek,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		SlotDurationMinutes: req.SlotDurationMinutes,
		IsRecurring:         req.IsRecurring,
		SpecificDate:        req.SpecificDate,
		IsBlocked:           req.IsBlocked,
	}
	if err := h.Rules.Create(c.Request().Context(), &rule); err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(201, toRuleResponse(rule))
}

// ListRules handles GET /v1/admin/availability-rules.
func (h *AdminAvailabilityHandler) ListRules(c echo.Context) error {
	rules, err := h.Rules.List(c.Request().Context())
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]availabilityRuleResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, toRuleResponse(r))
	}
	return c.JSON(200, echo.Map{"rules": out})
}

// UpdateRule handles PUT /v1/admin/availability-rules/:id.
func (h *AdminAvailabilityHandler) UpdateRule(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(400, echo.Map{"error": "invalid rule id"})
	}
	var req availabilityRuleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(400, echo.Map{"error": msg})
	}
	rule := model.AvailabilityRule{
		ID:                  id,
		Name:                req.Name,
		DaysOfWeek:          req.DaysOfWeek,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		SlotDurationMinutes: req.SlotDurationMinutes,
		IsRecurring:         req.IsRecurring,
		SpecificDate:        req.SpecificDate,
		IsBlocked:           req.IsBlocked,
	}
	if err := h.Rules.Update(c.Request().Context(), rule); err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(200, toRuleResponse(rule))
}

// DeleteRule handles DELETE /v1/admin/availability-rules/:id. Existing
// reservations are untouched; the rule only stops producing candidates.
func (h *AdminAvailabilityHandler) DeleteRule(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(400, echo.Map{"error": "invalid rule id"})
	}
	if err := h.Rules.Delete(c.Request().Context(), id); err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(200, echo.Map{"message": "rule deleted"})
}
