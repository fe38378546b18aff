package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/hazard-reporting/pkg/response"
)

const rateKeyPrefix = "hz:rl:"

// KeyFunc picks the bucket a request counts against.
type KeyFunc func(c *gin.Context) string

// AllowFunc returns true for requests that bypass the limit.
type AllowFunc func(*gin.Context) bool

func routeOf(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

func KeyByIP() KeyFunc {
	return func(c *gin.Context) string { return "ip:" + ClientIP(c) }
}

// KeyByIPAndPath gives each route its own bucket per client.
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string { return "route:" + routeOf(c) + ":ip:" + ClientIP(c) }
}

// KeyByUserID buckets authenticated callers by user and everyone else by IP.
// Must run after Require or OptionalAuth.
func KeyByUserID() KeyFunc {
	return func(c *gin.Context) string {
		if id, ok := IdentityFrom(c); ok {
			return "user:" + id.UserID
		}
		return "anon:ip:" + ClientIP(c)
	}
}

// fixedWindow increments the bucket, starts its window on the first hit and
// returns {count, ttl_ms} in one round trip.
var fixedWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// Limiter hands out fixed-window rate-limit middleware backed by Redis.
// A nil client disables limiting.
type Limiter struct {
	RDB    *redis.Client
	Logger *logrus.Logger
}

func NewLimiter(rdb *redis.Client, logger *logrus.Logger) *Limiter {
	return &Limiter{RDB: rdb, Logger: logger}
}

// Limit allows max requests per window per key. Redis errors fail open.
func (l *Limiter) Limit(max int, window time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if l == nil || l.RDB == nil || max <= 0 || window <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || (allow != nil && allow(c)) {
			c.Next()
			return
		}

		key := rateKeyPrefix + keyFn(c)
		res, err := fixedWindow.Run(c.Request.Context(), l.RDB, []string{key}, window.Milliseconds()).Int64Slice()
		if err != nil || len(res) != 2 {
			if l.Logger != nil {
				l.Logger.WithError(err).WithField("key", key).Warn("rate limit check failed; allowing request")
			}
			c.Next()
			return
		}
		count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
		resetSec := int((ttl + time.Second - 1) / time.Second)
		if resetSec < 0 {
			resetSec = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max-min(count, max)))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if count > max {
			if resetSec > 0 {
				c.Header("Retry-After", strconv.Itoa(resetSec))
			}
			response.Error[any](c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}
