package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"service-dispatch/internal/logx"
)

// RedisWindowLimiter is a fixed-window counter shared by every instance through Redis.
// It fails open: a Redis error lets the request through and is logged.
type RedisWindowLimiter struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
	prefix string
	logger logx.Logger
}

// NewRedisWindowLimiter allows limit requests per key within each window.
func NewRedisWindowLimiter(client redis.Cmdable, prefix string, limit int, window time.Duration, logger logx.Logger) *RedisWindowLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &RedisWindowLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		prefix: prefix,
		logger: logger,
	}
}

// Allow increments the key's counter and sets its expiry when the window opens.
func (l *RedisWindowLimiter) Allow(ctx context.Context, key string) bool {
	k := l.prefix + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn("rate limiter unavailable, allowing request",
			logx.String("key", k),
			logx.Err(err),
		)
		return true
	}
	return incr.Val() <= l.limit
}
