package handler

import (
	"context"
	"log"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/movsar/trainer-booking/internal/model"
	"github.com/movsar/trainer-booking/internal/queue"
	"github.com/movsar/trainer-booking/internal/queue_publisher"
	"github.com/movsar/trainer-booking/internal/repository"
	"github.com/movsar/trainer-booking/internal/service"
)

// ReservationHandler serves the client self-service booking surface:
// booking, listing, refund previews and policy-priced cancellation.
type ReservationHandler struct {
	Reservations *service.ReservationService
	Policies     *service.PolicyService
	Repo         *repository.ReservationRepo

	// TrainerID selects whose cancellation policy prices client
	// cancellations in this single-trainer deployment.
	TrainerID uint64
}

func NewReservationHandler(reservations *service.ReservationService, policies *service.PolicyService,
	repo *repository.ReservationRepo, trainerID uint64) *ReservationHandler {
	return &ReservationHandler{Reservations: reservations, Policies: policies, Repo: repo, TrainerID: trainerID}
}

type reservationResponse struct {
	ID          uint64  `json:"id"`
	UserID      uint64  `json:"user_id"`
	SlotID      uint64  `json:"slot_id"`
	Date        string  `json:"date"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Status      string  `json:"status"`
	CreditsUsed int64   `json:"credits_used"`
	Note        *string `json:"note,omitempty"`
}

func toReservationResponse(r model.Reservation) reservationResponse {
	return reservationResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		SlotID:      r.SlotID,
		Date:        r.Date,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Status:      r.Status,
		CreditsUsed: r.CreditsUsed,
		Note:        r.Note,
	}
}

func publishAudit(ev queue.AuditEvent) {
	if err := queue_publisher.PublishAudit(context.Background(), ev); err != nil {
		log.Printf("audit publish failed: %v", err)
	}
}

type createReservationRequest struct {
	SlotID        uint64  `json:"slot_id"`
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	PricingItemID *uint64 `json:"pricing_item_id"`
	Note          *string `json:"note"`
}

// CreateReservation handles POST /v1/reservations. The caller books
// either an existing slot by id or a derived availability candidate by
// date and time range; credits are always deducted on this path.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(401, echo.Map{"error": "unauthorized"})
	}
	var req createReservationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, echo.Map{"error": "invalid request body"})
	}
	if req.SlotID == 0 {
		if !validDate(req.Date) || !validClock(req.StartTime) || !validClock(req.EndTime) {
			return c.JSON(400, echo.Map{"error": "booking a candidate needs date, start_time and end_time"})
		}
		if req.StartTime >= req.EndTime {
			return c.JSON(400, echo.Map{"error": "start_time must be before end_time"})
		}
	}
	res, err := h.Reservations.CreateReservation(c.Request().Context(), service.CreateReservationInput{
		UserID:        userID,
		SlotID:        req.SlotID,
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		PricingItemID: req.PricingItemID,
		Note:          req.Note,
		DeductCredits: true,
	})
	if err != nil {
		return writeRepoError(c, err)
	}
	publishAudit(queue.AuditEvent{
		Action:   queue.ActionReservationCreated,
		ActorID:  userID,
		TargetID: res.ID,
		UserID:   userID,
		Amount:   -res.CreditsUsed,
		Detail:   res.Date + " " + res.StartTime,
	})
	return c.JSON(201, toReservationResponse(res))
}

// ListMyReservations handles GET /v1/reservations.
func (h *ReservationHandler) ListMyReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(401, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Repo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]reservationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationResponse(r))
	}
	return c.JSON(200, echo.Map{"reservations": out})
}

// PreviewRefund handles GET /v1/reservations/:id/refund-preview. The
// preview has no side effects; cancelling later recomputes the refund
// against the clock at that moment.
func (h *ReservationHandler) PreviewRefund(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(401, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(400, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeRepoError(c, err)
	}
	if res.UserID != userID {
		return c.JSON(403, echo.Map{"error": "forbidden"})
	}
	if res.Status != model.ReservationConfirmed {
		return c.JSON(409, echo.Map{"error": "reservation already cancelled"})
	}
	preview, err := h.Policies.CalculateRefund(c.Request().Context(), h.TrainerID, id)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(200, preview)
}

// CancelReservation handles DELETE /v1/reservations/:id. The refund is
// what the trainer's cancellation policy grants at this moment.
func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(401, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(400, echo.Map{"error": "invalid reservation id"})
	}
	preview, err := h.Policies.CalculateRefund(c.Request().Context(), h.TrainerID, id)
	if err != nil {
		return writeRepoError(c, err)
	}
	res, err := h.Reservations.CancelReservation(c.Request().Context(), id, service.CancelOptions{
		ActorUserID:   &userID,
		RefundCredits: preview.RefundCredits,
	})
	if err != nil {
		return writeRepoError(c, err)
	}
	publishAudit(queue.AuditEvent{
		Action:   queue.ActionReservationCancelled,
		ActorID:  userID,
		TargetID: res.ID,
		UserID:   res.UserID,
		Amount:   preview.RefundCredits,
		Detail:   "tier " + preview.Tier + " " + strconv.Itoa(preview.Percentage) + "%",
	})
	return c.JSON(200, echo.Map{
		"reservation":    toReservationResponse(res),
		"refund_credits": preview.RefundCredits,
		"refund_tier":    preview.Tier,
	})
}
