package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campus-clubs/backend/internal/metrics"
	"github.com/campus-clubs/backend/pkg/response"
)

// WindowCounter counts hits for key inside a fixed window.
type WindowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisWindow is a fixed-window counter on Redis INCR + EXPIRE.
type RedisWindow struct {
	client *redis.Client
	prefix string
}

// NewRedisWindow creates a Redis-backed window counter.
func NewRedisWindow(client *redis.Client, prefix string) *RedisWindow {
	return &RedisWindow{client: client, prefix: prefix}
}

// Hit increments key and returns the count in the current window.
func (w *RedisWindow) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	bucket := time.Now().UnixNano() / int64(window)
	k := w.prefix + key + ":" + strconv.FormatInt(bucket, 10)
	pipe := w.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimit rejects a client IP after max requests per window with 429.
// Counter errors let the request through.
func RateLimit(counter WindowCounter, name string, max int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || max <= 0 {
			c.Next()
			return
		}
		n, err := counter.Hit(c.Request.Context(), name+":"+c.ClientIP(), window)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if n > int64(max) {
			metrics.RateLimited.Inc()
			response.TooManyRequests(c, "Too many requests, please try again later.")
			c.Abort()
			return
		}
		c.Next()
	}
}
