package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Malcolm-Mukorera/campus-events-api/pkg/helpers"
)

// EventsCachePrefix namespaces every cached event response.
const EventsCachePrefix = "cache:events:"

// eventsCacheGenKey holds the cache generation. Every invalidation bumps it and
// keys embed the generation read before the handler ran, so a response built
// from data older than a write is stored where no later request looks.
const eventsCacheGenKey = "cache:gen:events"

type cachedBody struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

func cacheKey(c *gin.Context, gen int64) string {
	sum := sha1.Sum([]byte(c.Request.URL.Path + "?" + c.Request.URL.RawQuery))
	return EventsCachePrefix + strconv.FormatInt(gen, 10) + ":" + hex.EncodeToString(sum[:])
}

func cacheGeneration(ctx context.Context, rdb *redis.Client) (int64, error) {
	gen, err := rdb.Get(ctx, eventsCacheGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

type bufferedWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache serves GET responses from Redis for ttl. Only 200 responses
// are stored. A nil client or non-positive ttl disables it.
func ResponseCache(rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) gin.HandlerFunc {
	if rdb == nil || ttl <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		gen, err := cacheGeneration(ctx, rdb)
		if err != nil {
			if logger != nil {
				logger.WithError(err).Warn("read cache generation failed")
			}
			c.Next()
			return
		}
		key := cacheKey(c, gen)

		var hit cachedBody
		if ok, err := helpers.RedisGetJSON(ctx, rdb, key, &hit); err == nil && ok {
			c.Header("X-Cache", "HIT")
			c.Data(hit.Status, hit.ContentType, hit.Body)
			c.Abort()
			return
		}

		bw := &bufferedWriter{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = bw
		c.Header("X-Cache", "MISS")
		c.Next()

		if bw.Status() != http.StatusOK {
			return
		}
		entry := cachedBody{Status: bw.Status(), ContentType: bw.Header().Get("Content-Type"), Body: bw.buf.Bytes()}
		if err := helpers.RedisSetJSON(ctx, rdb, key, entry, ttl); err != nil && logger != nil {
			logger.WithError(err).WithField("key", key).Warn("store cached response failed")
		}
	}
}

// InvalidateCache bumps the cache generation and purges every cached event
// response after a successful mutation on the wrapped route.
func InvalidateCache(rdb *redis.Client, logger *logrus.Logger) gin.HandlerFunc {
	if rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		ctx := c.Request.Context()
		if err := rdb.Incr(ctx, eventsCacheGenKey).Err(); err != nil && logger != nil {
			logger.WithError(err).Warn("bump cache generation failed")
		}
		if err := helpers.RedisDelPattern(ctx, rdb, EventsCachePrefix+"*"); err != nil && logger != nil {
			logger.WithError(err).Warn("purge event cache failed")
		}
	}
}
