package handler

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/movsar/trainer-booking/internal/model"
	"github.com/movsar/trainer-booking/internal/repository"
	"github.com/movsar/trainer-booking/internal/service"
	"github.com/movsar/trainer-booking/internal/utils"
)

// AdminTemplateHandler manages weekly slot templates and their
// application to concrete weeks.
type AdminTemplateHandler struct {
	Templates *repository.TemplateRepo
	Service   *service.TemplateService
}

func NewAdminTemplateHandler(templates *repository.TemplateRepo, svc *service.TemplateService) *AdminTemplateHandler {
	return &AdminTemplateHandler{Templates: templates, Service: svc}
}

type templateSlotRequest struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type createTemplateRequest struct {
	Name  string                `json:"name"`
	Slots []templateSlotRequest `json:"slots"`
}

// CreateTemplate handles POST /v1/admin/templates.
func (h *AdminTemplateHandler) CreateTemplate(c echo.Context) error {
	var req createTemplateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, echo.Map{"error": "invalid request body"})
	}
	if req.Name == "" {
		return c.JSON(400, echo.Map{"error": "name is required"})
	}
	if len(req.Slots) == 0 {
		return c.JSON(400, echo.Map{"error": "a template needs at least one slot"})
	}
	slots := make([]model.TemplateSlot, 0, len(req.Slots))
	for _, s := range req.Slots {
		if s.DayOfWeek < 1 || s.DayOfWeek > 7 {
			return c.JSON(400, echo.Map{"error": "day_of_week must be 1..7"})
		}
		if !validClock(s.StartTime) || !validClock(s.EndTime) || s.StartTime >= s.EndTime {
			return c.JSON(400, echo.Map{"error": "slot times must be HH:MM with start before end"})
		}
		start, _ := utils.ParseClock(s.StartTime)
		end, _ := utils.ParseClock(s.EndTime)
		slots = append(slots, model.TemplateSlot{
			DayOfWeek:       s.DayOfWeek,
			StartTime:       s.StartTime,
			EndTime:         s.EndTime,
			DurationMinutes: end - start,
		})
	}
	tpl := model.SlotTemplate{Name: req.Name, IsActive: true}
	if err := h.Templates.Create(c.Request().Context(), &tpl, slots); err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(201, echo.Map{"id": tpl.ID, "name": tpl.Name, "slot_count": len(slots)})
}

// ListTemplates handles GET /v1/admin/templates.
func (h *AdminTemplateHandler) ListTemplates(c echo.Context) error {
	tpls, err := h.Templates.List(c.Request().Context())
	if err != nil {
		return writeRepoError(c, err)
	}
	type item struct {
		ID       uint64 `json:"id"`
		Name     string `json:"name"`
		IsActive bool   `json:"is_active"`
	}
	out := make([]item, 0, len(tpls))
	for _, t := range tpls {
		out = append(out, item{ID: t.ID, Name: t.Name, IsActive: t.IsActive})
	}
	return c.JSON(200, echo.Map{"templates": out})
}

// SetTemplateActive handles PATCH /v1/admin/templates/:id/active.
func (h *AdminTemplateHandler) SetTemplateActive(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(400, echo.Map{"error": "invalid template id"})
	}
	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, echo.Map{"error": "invalid request body"})
	}
	if err := h.Templates.SetActive(c.Request().Context(), id, req.IsActive); err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(200, echo.Map{"id": id, "is_active": req.IsActive})
}

// ApplyTemplate handles POST /v1/admin/templates/:id/apply. The week is
// identified by any date inside it; re-applying skips slots that already
// exist, so the call is safe to repeat.
func (h *AdminTemplateHandler) ApplyTemplate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(400, echo.Map{"error": "invalid template id"})
	}
	var req struct {
		WeekDate string `json:"week_date"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, echo.Map{"error": "invalid request body"})
	}
	if !validDate(req.WeekDate) {
		return c.JSON(400, echo.Map{"error": "week_date must be YYYY-MM-DD"})
	}
	created, err := h.Service.ApplyTemplate(c.Request().Context(), id, req.WeekDate)
	if err != nil {
		if errors.Is(err, service.ErrTemplateInactive) {
			return c.JSON(409, echo.Map{"error": "template is inactive"})
		}
		return writeRepoError(c, err)
	}
	out := make([]slotResponse, 0, len(created))
	for _, s := range created {
		out = append(out, toSlotResponse(s))
	}
	return c.JSON(200, echo.Map{"created": out, "created_count": len(out)})
}

// UnlockWeek handles POST /v1/admin/slots/unlock-week: every LOCKED slot
// in the week becomes bookable. Other weeks and other statuses are left
// alone.
func (h *AdminTemplateHandler) UnlockWeek(c echo.Context) error {
	var req struct {
		WeekDate string `json:"week_date"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, echo.Map{"error": "invalid request body"})
	}
	if !validDate(req.WeekDate) {
		return c.JSON(400, echo.Map{"error": "week_date must be YYYY-MM-DD"})
	}
	count, err := h.Service.UnlockWeek(c.Request().Context(), req.WeekDate)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(200, echo.Map{"unlocked_count": count})
}
