package handler

import "github.com/labstack/echo/v4"

// Health responds 200 so load balancers can probe the service.
func Health(c echo.Context) error {
	return c.JSON(200, echo.Map{"status": "ok"})
}
