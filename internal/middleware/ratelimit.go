package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/cinetick/booking/internal/config"
)

// tokenBucketScript refills and drains one requester's bucket in a
// single Redis round trip, so every instance behind a load balancer
// draws from the same budget.  Returns {allowed, remaining, retry_ms}.
var tokenBucketScript = redis.NewScript(`
	local bucket = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local burst = tonumber(ARGV[2])
	local refill_ms = tonumber(ARGV[3])
	local ttl_s = tonumber(ARGV[4])

	local state = redis.call('HMGET', bucket, 'tokens', 'refilled_ms')
	local tokens = tonumber(state[1])
	local refilled = tonumber(state[2])
	if tokens == nil or refilled == nil then
		tokens = burst
		refilled = now_ms
	end

	local earned = math.floor(math.max(0, now_ms - refilled) / refill_ms)
	if earned > 0 then
		tokens = math.min(burst, tokens + earned)
		refilled = refilled + earned * refill_ms
	end

	local allowed = 0
	local retry_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		retry_ms = math.max(0, refill_ms - (now_ms - refilled))
	end

	redis.call('HMSET', bucket, 'tokens', tokens, 'refilled_ms', refilled)
	redis.call('EXPIRE', bucket, ttl_s)
	return { allowed, tokens, retry_ms }
`)

// RateLimit returns an Echo middleware throttling the mutating booking
// routes per requester.  The bucket key is the authenticated user id,
// falling back to the client IP for requests that fail JWT extraction,
// scoped by route so a hold-creation burst cannot starve finalize.
// Without a Redis client, or when Redis errs mid-request, the
// middleware passes through: losing rate limiting is better than
// losing checkouts.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := bucketKey(cfg.Prefix, c)
			args := []interface{}{
				time.Now().UnixMilli(),
				cfg.Burst,
				cfg.RefillEvery.Milliseconds(),
				int64(cfg.TTL / time.Second),
			}

			vals, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key}, args...).Int64Slice()
			if err != nil || len(vals) != 3 {
				return next(c)
			}
			allowed, remaining, retryMs := vals[0] == 1, vals[1], vals[2]

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				secs := int(math.Ceil(float64(retryMs) / 1000.0))
				h.Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too many requests",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

// bucketKey scopes the budget per requester and route.  The user id is
// preferred over the IP so shared NATs are not punished collectively.
func bucketKey(prefix string, c echo.Context) string {
	who := currentUserID(c)
	if who == "" {
		who = c.RealIP()
	}
	if who == "" {
		who = "unknown"
	}
	return prefix + ":" + who + ":" + c.Request().Method + ":" + c.Path()
}

func currentUserID(c echo.Context) string {
	// JWTAuth stores the raw sub claim, which decodes as float64 for
	// numeric ids and string otherwise.
	switch v := c.Get("user_id").(type) {
	case string:
		return v
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	}
	return ""
}
