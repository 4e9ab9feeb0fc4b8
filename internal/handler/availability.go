package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/movsar/trainer-booking/internal/service"
)

// AvailabilityHandler serves the public availability feed.
type AvailabilityHandler struct {
	Availability *service.AvailabilityService
}

func NewAvailabilityHandler(availability *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{Availability: availability}
}

// GetAvailableSlots handles GET /v1/availability?date=YYYY-MM-DD.
// Candidates are derived on the fly from availability rules with
// already-booked start times marked unavailable.
func (h *AvailabilityHandler) GetAvailableSlots(c echo.Context) error {
	date := c.QueryParam("date")
	if !validDate(date) {
		return c.JSON(400, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	slots, err := h.Availability.GetAvailableSlots(c.Request().Context(), date)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(200, echo.Map{"date": date, "slots": slots})
}
