// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/movsar/trainer-booking/internal/handler"
	"github.com/movsar/trainer-booking/internal/middleware"
	"github.com/movsar/trainer-booking/internal/model"
)

// PublicHandlers groups the handlers reachable without authentication.
type PublicHandlers struct {
	Availability *handler.AvailabilityHandler
	Credits      *handler.CreditHandler
}

// ClientHandlers groups the handlers for authenticated clients.
type ClientHandlers struct {
	Reservations *handler.ReservationHandler
	Credits      *handler.CreditHandler
}

// AdminHandlers groups the handlers for the admin surface.
type AdminHandlers struct {
	Availability *handler.AdminAvailabilityHandler
	Slots        *handler.AdminSlotHandler
	Templates    *handler.AdminTemplateHandler
	Reservations *handler.AdminReservationHandler
	Credits      *handler.CreditHandler
	Policy       *handler.PolicyHandler
}

// RegisterRoutes registers routes that do not require authentication:
// the health probe, the availability feed, the pricing catalog and the
// payment webhook (which authenticates with its own shared secret).
// The cache middleware, when non-nil, fronts the availability feed.
func RegisterRoutes(e *echo.Echo, p PublicHandlers, cache echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)
	if cache != nil {
		e.GET("/v1/availability", p.Availability.GetAvailableSlots, cache)
	} else {
		e.GET("/v1/availability", p.Availability.GetAvailableSlots)
	}
	e.GET("/v1/pricing", p.Credits.ListPricing)
	e.POST("/v1/webhooks/payment", p.Credits.PaymentWebhook)
}

// RegisterClient registers the self-service booking surface. Every
// route requires a valid JWT; the booking POST additionally passes the
// rate limiter when one is configured.
func RegisterClient(e *echo.Echo, h ClientHandlers, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleClient, model.RoleAdmin))

	if limit != nil {
		g.POST("/reservations", h.Reservations.CreateReservation, limit)
	} else {
		g.POST("/reservations", h.Reservations.CreateReservation)
	}
	g.GET("/reservations", h.Reservations.ListMyReservations)
	g.GET("/reservations/:id/refund-preview", h.Reservations.PreviewRefund)
	g.DELETE("/reservations/:id", h.Reservations.CancelReservation)

	g.GET("/credits/balance", h.Credits.GetBalance)
	g.GET("/credits/transactions", h.Credits.ListTransactions)
}

// RegisterAdmin registers the admin surface under /v1/admin. Every
// route requires a JWT carrying the ADMIN role.
func RegisterAdmin(e *echo.Echo, h AdminHandlers, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin))

	g.POST("/availability-rules", h.Availability.CreateRule)
	g.GET("/availability-rules", h.Availability.ListRules)
	g.PUT("/availability-rules/:id", h.Availability.UpdateRule)
	g.DELETE("/availability-rules/:id", h.Availability.DeleteRule)

	g.POST("/slots", h.Slots.CreateSlot)
	g.GET("/slots", h.Slots.ListSlots)
	g.PUT("/slots/:id", h.Slots.UpdateSlot)
	g.PATCH("/slots/:id/status", h.Slots.SetSlotStatus)
	g.DELETE("/slots/:id", h.Slots.DeleteSlot)
	g.POST("/slots/unlock-week", h.Templates.UnlockWeek)

	g.POST("/templates", h.Templates.CreateTemplate)
	g.GET("/templates", h.Templates.ListTemplates)
	g.PATCH("/templates/:id/active", h.Templates.SetTemplateActive)
	g.POST("/templates/:id/apply", h.Templates.ApplyTemplate)

	g.POST("/reservations", h.Reservations.CreateReservation)
	g.GET("/reservations", h.Reservations.ListByDate)
	g.DELETE("/reservations/:id", h.Reservations.CancelReservation)
	g.PATCH("/reservations/:id/note", h.Reservations.UpdateNote)
	g.POST("/reservations/:id/reminders", h.Reservations.SendReminder)

	g.POST("/credits/adjustments", h.Credits.AdminAdjust)
	g.GET("/policy", h.Policy.GetPolicy)
	g.PUT("/policy", h.Policy.UpdatePolicy)
}
