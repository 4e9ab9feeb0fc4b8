package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/movsar/trainer-booking/internal/repository"
	"github.com/movsar/trainer-booking/internal/utils"
)

// getUserID extracts the user_id from echo.Context and converts it to
// uint64. JWT middleware stores the claim as whatever type the token
// carried, so several representations are accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter, rejecting zero.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// validDate reports whether s is a well-formed YYYY-MM-DD date.
func validDate(s string) bool {
	_, err := utils.ParseDate(s)
	return err == nil
}

// validClock reports whether s is a well-formed HH:MM time.
func validClock(s string) bool {
	_, err := utils.ParseClock(s)
	return err == nil
}

// writeRepoError maps repository sentinel errors onto HTTP responses so
// every handler reports the same statuses for the same conditions.
func writeRepoError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(404, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(403, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrSlotTaken):
		return c.JSON(409, echo.Map{"error": "slot already booked"})
	case errors.Is(err, repository.ErrDuplicateSlot):
		return c.JSON(409, echo.Map{"error": "slot already exists at this date and time"})
	case errors.Is(err, repository.ErrAlreadyCancelled):
		return c.JSON(409, echo.Map{"error": "reservation already cancelled"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(409, echo.Map{"error": "conflict"})
	case errors.Is(err, repository.ErrInsufficientCredits):
		return c.JSON(402, echo.Map{"error": "insufficient credits"})
	}
	return c.JSON(500, echo.Map{"error": "database error"})
}
