package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/cinetick/booking/internal/config"
)

func limiterContext(userID interface{}) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/showtimes/7/holds", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/showtimes/:id/holds")
	if userID != nil {
		c.Set("user_id", userID)
	}
	return c
}

func TestBucketKeyPerUserAndRoute(t *testing.T) {
	c := limiterContext(float64(42))
	assert.Equal(t, "booking:rl:42:POST:/v1/showtimes/:id/holds", bucketKey("booking:rl", c))

	// Unauthenticated requests fall back to the client IP, so a shared
	// user budget is never keyed to an empty id.
	anon := limiterContext(nil)
	assert.Equal(t, "booking:rl:"+anon.RealIP()+":POST:/v1/showtimes/:id/holds", bucketKey("booking:rl", anon))
}

func TestRateLimitPassThroughWithoutRedis(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Burst: 1, RefillEvery: time.Second, TTL: time.Minute, Prefix: "booking:rl"}

	called := 0
	handler := RateLimit(cfg, nil)(func(c echo.Context) error {
		called++
		return c.NoContent(http.StatusOK)
	})
	for i := 0; i < 3; i++ {
		assert.NoError(t, handler(limiterContext(float64(42))))
	}
	assert.Equal(t, 3, called)
}

func TestRateLimitDisabled(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: false}

	called := false
	handler := RateLimit(cfg, nil)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	assert.NoError(t, handler(limiterContext(float64(42))))
	assert.True(t, called)
}
