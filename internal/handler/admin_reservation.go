package handler

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/movsar/trainer-booking/internal/queue"
	"github.com/movsar/trainer-booking/internal/repository"
	"github.com/movsar/trainer-booking/internal/service"
)

// AdminReservationHandler serves the admin booking surface: booking on
// behalf of a client, day schedules, explicit-refund cancellation, note
// edits and manual reminder dispatch.
type AdminReservationHandler struct {
	Reservations *service.ReservationService
	Reminders    *service.ReminderScheduler
	Repo         *repository.ReservationRepo
}

func NewAdminReservationHandler(reservations *service.ReservationService, reminders *service.ReminderScheduler,
	repo *repository.ReservationRepo) *AdminReservationHandler {
	return &AdminReservationHandler{Reservations: reservations, Reminders: reminders, Repo: repo}
}

type adminCreateReservationRequest struct {
	UserID        uint64  `json:"user_id"`
	SlotID        uint64  `json:"slot_id"`
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	PricingItemID *uint64 `json:"pricing_item_id"`
	Note          *string `json:"note"`
	DeductCredits bool    `json:"deduct_credits"`
}

// CreateReservation handles POST /v1/admin/reservations. Unlike the
// client path the admin chooses whether credits are deducted; a free
// booking writes no ledger entry at all.
func (h *AdminReservationHandler) CreateReservation(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(401, echo.Map{"error": "unauthorized"})
	}
	var req adminCreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, echo.Map{"error": "invalid request body"})
	}
	if req.UserID == 0 {
		return c.JSON(400, echo.Map{"error": "user_id is required"})
	}
	if req.SlotID == 0 {
		if !validDate(req.Date) || !validClock(req.StartTime) || !validClock(req.EndTime) {
			return c.JSON(400, echo.Map{"error": "booking without slot_id needs date, start_time and end_time"})
		}
		if req.StartTime >= req.EndTime {
			return c.JSON(400, echo.Map{"error": "start_time must be before end_time"})
		}
	}
	res, err := h.Reservations.CreateReservation(c.Request().Context(), service.CreateReservationInput{
		UserID:        req.UserID,
		SlotID:        req.SlotID,
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		PricingItemID: req.PricingItemID,
		Note:          req.Note,
		DeductCredits: req.DeductCredits,
	})
	if err != nil {
		return writeRepoError(c, err)
	}
	publishAudit(queue.AuditEvent{
		Action:   queue.ActionReservationCreated,
		ActorID:  adminID,
		TargetID: res.ID,
		UserID:   res.UserID,
		Amount:   -res.CreditsUsed,
		Detail:   res.Date + " " + res.StartTime,
	})
	return c.JSON(201, toReservationResponse(res))
}

// ListByDate handles GET /v1/admin/reservations?date=YYYY-MM-DD.
func (h *AdminReservationHandler) ListByDate(c echo.Context) error {
	date := c.QueryParam("date")
	if !validDate(date) {
		return c.JSON(400, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	list, err := h.Repo.ListByDate(c.Request().Context(), date)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]reservationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationResponse(r))
	}
	return c.JSON(200, echo.Map{"date": date, "reservations": out})
}

// CancelReservation handles DELETE /v1/admin/reservations/:id. The
// refund_credits flag overrides the cancellation policy entirely: true
// returns everything the booking debited, false returns nothing.
func (h *AdminReservationHandler) CancelReservation(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(401, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(400, echo.Map{"error": "invalid reservation id"})
	}
	var req struct {
		RefundCredits bool `json:"refund_credits"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, echo.Map{"error": "invalid request body"})
	}
	res, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeRepoError(c, err)
	}
	var refund int64
	if req.RefundCredits {
		refund = res.CreditsUsed
	}
	cancelled, err := h.Reservations.CancelReservation(c.Request().Context(), id, service.CancelOptions{
		RefundCredits: refund,
	})
	if err != nil {
		return writeRepoError(c, err)
	}
	publishAudit(queue.AuditEvent{
		Action:   queue.ActionReservationCancelled,
		ActorID:  adminID,
		TargetID: cancelled.ID,
		UserID:   cancelled.UserID,
		Amount:   refund,
		Detail:   "admin cancel",
	})
	return c.JSON(200, echo.Map{
		"reservation":    toReservationResponse(cancelled),
		"refund_credits": refund,
	})
}

// UpdateNote handles PATCH /v1/admin/reservations/:id/note.
func (h *AdminReservationHandler) UpdateNote(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(400, echo.Map{"error": "invalid reservation id"})
	}
	var req struct {
		Note *string `json:"note"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, echo.Map{"error": "invalid request body"})
	}
	if err := h.Repo.UpdateNote(c.Request().Context(), id, req.Note); err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(200, echo.Map{"id": id, "note": req.Note})
}

// SendReminder handles POST /v1/admin/reservations/:id/reminders. It
// dispatches one reminder of the given type immediately, subject to the
// same at-most-once guard as the scheduler.
func (h *AdminReservationHandler) SendReminder(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(400, echo.Map{"error": "invalid reservation id"})
	}
	var req struct {
		ReminderType string `json:"reminder_type"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, echo.Map{"error": "invalid request body"})
	}
	err := h.Reminders.SendManual(c.Request().Context(), id, req.ReminderType)
	if err != nil {
		if errors.Is(err, service.ErrUnknownReminderType) {
			return c.JSON(400, echo.Map{"error": "reminder_type must be 24h or 1h"})
		}
		return writeRepoError(c, err)
	}
	return c.JSON(200, echo.Map{"message": "reminder sent"})
}
