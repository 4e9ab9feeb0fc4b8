package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/movsar/trainer-booking/internal/model"
	"github.com/movsar/trainer-booking/internal/repository"
	"github.com/movsar/trainer-booking/internal/utils"
)

// AdminSlotHandler manages concrete slot rows: manual creation, edits,
// state toggles and deletion. Slots under a confirmed reservation are
// protected at the repository level.
type AdminSlotHandler struct {
	Slots *repository.SlotRepo
}

func NewAdminSlotHandler(slots *repository.SlotRepo) *AdminSlotHandler {
	return &AdminSlotHandler{Slots: slots}
}

type slotRequest struct {
	Date           string  `json:"date"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	Status         string  `json:"status"`
	AssignedUserID *uint64 `json:"assigned_user_id"`
	Note           *string `json:"note"`
}

type slotResponse struct {
	ID              uint64  `json:"id"`
	Date            string  `json:"date"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DurationMinutes int     `json:"duration_minutes"`
	Status          string  `json:"status"`
	AssignedUserID  *uint64 `json:"assigned_user_id,omitempty"`
	TemplateID      *uint64 `json:"template_id,omitempty"`
	Note            *string `json:"note,omitempty"`
}

func toSlotResponse(s model.Slot) slotResponse {
	return slotResponse{
		ID:              s.ID,
		Date:            s.Date,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		DurationMinutes: s.DurationMinutes,
		Status:          s.Status,
		AssignedUserID:  s.AssignedUserID,
		TemplateID:      s.TemplateID,
		Note:            s.Note,
	}
}

func validSlotStatus(s string) bool {
	switch s {
	case model.SlotLocked, model.SlotUnlocked, model.SlotReserved, model.SlotBlocked:
		return true
	}
	return false
}

func (req slotRequest) validate() string {
	if !validDate(req.Date) {
		return "date must be YYYY-MM-DD"
	}
	if !validClock(req.StartTime) || !validClock(req.EndTime) {
		return "start_time and end_time must be HH:MM"
	}
	if req.StartTime >= req.EndTime {
		return "start_time must be before end_time"
	}
	if req.Status != "" && !validSlotStatus(req.Status) {
		return "unknown slot status"
	}
	if req.Status == model.SlotReserved {
		return "slots become RESERVED through booking, not directly"
	}
	return ""
}

func slotDuration(startTime, endTime string) int {
	start, _ := utils.ParseClock(startTime)
	end, _ := utils.ParseClock(endTime)
	return end - start
}

// CreateSlot handles POST /v1/admin/slots. New slots default to LOCKED
// until the admin opens them for booking.
func (h *AdminSlotHandler) CreateSlot(c echo.Context) error {
	var req slotRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(400, echo.Map{"error": msg})
	}
	status := req.Status
	if status == "" {
		status = model.SlotLocked
	}
	slot := model.Slot{
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: slotDuration(req.StartTime, req.EndTime),
		Status:          status,
		AssignedUserID:  req.AssignedUserID,
		Note:            req.Note,
	}
	if err := h.Slots.Create(c.Request().Context(), &slot); err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(201, toSlotResponse(slot))
}

// ListSlots handles GET /v1/admin/slots?from=...&to=...
func (h *AdminSlotHandler) ListSlots(c echo.Context) error {
	from, to := c.QueryParam("from"), c.QueryParam("to")
	if !validDate(from) || !validDate(to) {
		return c.JSON(400, echo.Map{"error": "from and to must be YYYY-MM-DD"})
	}
	if from > to {
		return c.JSON(400, echo.Map{"error": "from must not be after to"})
	}
	slots, err := h.Slots.ListByDateRange(c.Request().Context(), from, to)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, toSlotResponse(s))
	}
	return c.JSON(200, echo.Map{"slots": out})
}

// UpdateSlot handles PUT /v1/admin/slots/:id. Status is not editable
// here, only through the status endpoint. Slots holding a confirmed
// reservation reject edits with 409.
func (h *AdminSlotHandler) UpdateSlot(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(400, echo.Map{"error": "invalid slot id"})
	}
	var req slotRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(400, echo.Map{"error": msg})
	}
	if req.Status != "" {
		return c.JSON(400, echo.Map{"error": "status is changed via PATCH /slots/:id/status"})
	}
	slot := model.Slot{
		ID:              id,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: slotDuration(req.StartTime, req.EndTime),
		AssignedUserID:  req.AssignedUserID,
		Note:            req.Note,
	}
	if err := h.Slots.Update(c.Request().Context(), slot); err != nil {
		return writeRepoError(c, err)
	}
	got, err := h.Slots.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(200, toSlotResponse(got))
}

// SetSlotStatus handles PATCH /v1/admin/slots/:id/status for the
// lock/unlock/block toggles.
func (h *AdminSlotHandler) SetSlotStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(400, echo.Map{"error": "invalid slot id"})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, echo.Map{"error": "invalid request body"})
	}
	if !validSlotStatus(req.Status) || req.Status == model.SlotReserved {
		return c.JSON(400, echo.Map{"error": "status must be LOCKED, UNLOCKED or BLOCKED"})
	}
	if err := h.Slots.UpdateStatus(c.Request().Context(), id, req.Status); err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(200, echo.Map{"id": id, "status": req.Status})
}

// DeleteSlot handles DELETE /v1/admin/slots/:id. Reserved slots cannot
// be deleted; cancel the reservation first.
func (h *AdminSlotHandler) DeleteSlot(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(400, echo.Map{"error": "invalid slot id"})
	}
	if err := h.Slots.Delete(c.Request().Context(), id); err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(200, echo.Map{"message": "slot deleted"})
}
