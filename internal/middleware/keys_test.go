package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/movsar/trainer-booking/internal/config"
)

func ctxFor(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/availability")
	return c
}

func TestAvailabilityCacheKeyPerDate(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "avail", KeyStrategy: "date"}

	// One key per calendar day, regardless of query noise.
	a := availabilityCacheKey(cfg, ctxFor("/v1/availability?date=2026-03-04"))
	b := availabilityCacheKey(cfg, ctxFor("/v1/availability?date=2026-03-04&utm=x"))
	assert.Equal(t, "avail:day:2026-03-04", a)
	assert.Equal(t, a, b)

	// Different days cache separately.
	other := availabilityCacheKey(cfg, ctxFor("/v1/availability?date=2026-03-05"))
	assert.NotEqual(t, a, other)

	// No date parameter falls back to hashing the full query.
	assert.NotEqual(t,
		availabilityCacheKey(cfg, ctxFor("/v1/availability?from=a")),
		availabilityCacheKey(cfg, ctxFor("/v1/availability?from=b")))
}

func TestBookingRateKeyPerClient(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "booking:rl", KeyStrategy: "client"}

	// Authenticated requests bucket per user id.
	c := ctxFor("/v1/reservations")
	c.Set("user_id", uint64(7))
	assert.Equal(t, "booking:rl:client:7", bookingRateKey(cfg, c))

	// Anonymous requests fall back to the caller's address.
	anon := ctxFor("/v1/reservations")
	assert.Contains(t, bookingRateKey(cfg, anon), "booking:rl:ip:")

	// The route variant keeps separate budgets per endpoint.
	cfg.KeyStrategy = "client_route"
	c2 := ctxFor("/v1/reservations")
	c2.Set("user_id", uint64(7))
	assert.Equal(t, "booking:rl:client:7:GET:/v1/availability", bookingRateKey(cfg, c2))
}
