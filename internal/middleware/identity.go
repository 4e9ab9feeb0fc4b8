package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID returns the authenticated user's id as a string for
// rate-limit and cache keying. JWTAuth stores the "sub" claim under
// "user_id" in whatever type the token carried; unauthenticated
// requests key as "anon".
func currentUserID(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "anon"
	}
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		return fmt.Sprintf("%.0f", t)
	case int, int64, uint64:
		return fmt.Sprintf("%d", t)
	}
	return "anon"
}
