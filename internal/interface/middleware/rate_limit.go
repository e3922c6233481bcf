package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Malcolm-Mukorera/campus-events-api/pkg/response"
)

// ipFromCtx extracts the client IP from Gin context, falling back to "unknown"
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString(CtxRealIPKey); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func normalizePath(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyFunc builds a rate-limit key from the request
type KeyFunc func(c *gin.Context) string

// KeyByIPAndPath limits by client IP and route template
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:path:" + normalizePath(c) + ":ip:" + ipFromCtx(c)
	}
}

// KeyByUserID limits authenticated callers by user id and anonymous ones by IP.
func KeyByUserID() KeyFunc {
	return func(c *gin.Context) string {
		uid := c.GetString(CtxUserIDKey)
		if uid == "" {
			return "rl:user:anon:ip:" + ipFromCtx(c)
		}
		return "rl:user:" + uid
	}
}

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Duration
}

// Limiter counts requests per key.
type Limiter interface {
	Take(ctx context.Context, key string) (Decision, error)
}

// NewLimiter returns a Redis fixed-window limiter when rdb is set and an
// in-process token bucket limiter otherwise. It returns nil when max or
// window disable limiting.
func NewLimiter(rdb *redis.Client, max int, window time.Duration) Limiter {
	if max <= 0 || window <= 0 {
		return nil
	}
	if rdb == nil {
		return NewLocalLimiter(max, window)
	}
	return &RedisLimiter{rdb: rdb, max: max, window: window}
}

// Lua script: atomic INCR, and PEXPIRE on the first hit of a window
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// RedisLimiter is a fixed-window counter shared by every API instance.
type RedisLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
}

func (l *RedisLimiter) Take(ctx context.Context, key string) (Decision, error) {
	res, err := incrExpireScript.Run(ctx, l.rdb, []string{key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	count, pttl := int(res[0]), res[1]
	d := Decision{Allowed: count <= l.max, Limit: l.max, Remaining: max(l.max-count, 0)}
	if pttl > 0 {
		d.Reset = time.Duration(pttl) * time.Millisecond
	}
	return d, nil
}

// RateLimit rejects requests over the limiter's budget with 429 and sets the
// X-RateLimit-* headers. A nil limiter disables the middleware; limiter
// errors let the request through.
func RateLimit(l Limiter, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if l == nil || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if allow != nil && allow(c) {
			c.Next()
			return
		}

		d, err := l.Take(c.Request.Context(), keyFn(c))
		if err != nil {
			// fail open
			c.Next()
			return
		}

		resetSec := int((d.Reset + time.Second - 1) / time.Second)
		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(max(resetSec, 1)))
			response.Abort(c, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}
