package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"service-dispatch/internal/config"
	"service-dispatch/internal/http/middleware/ratelimit"
	"service-dispatch/internal/logx"
)

const loginLimitPrefix = "dispatch:login"

func newRateLimiter(cfg *config.Config, clock ratelimit.Clock) ratelimit.Limiter {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return ratelimit.NopLimiter{}
	}
	return ratelimit.NewTokenBucketLimiter(clock, ratelimit.Config{
		Rate:       rl.Rate,
		Burst:      rl.Burst,
		TTL:        rl.TTL,
		MaxBuckets: rl.MaxBuckets,
	})
}

func newRateLimitClock() ratelimit.Clock {
	return ratelimit.RealClock{}
}

type rateLimitIn struct {
	dig.In
	Logger  logx.Logger
	Counter prometheus.Counter `name:"rate_limit_exceeded_total"`
	Limiter ratelimit.Limiter
}

func newRateLimitMiddleware(in rateLimitIn) *ratelimit.Middleware {
	return ratelimit.New(in.Logger, in.Counter, in.Limiter)
}

// newRedisClient returns nil when no Redis address is configured.
func newRedisClient(cfg *config.Config) *redis.Client {
	if cfg.LoginLimit.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.LoginLimit.RedisAddr})
}

// loginLimit guards the login route. Nil means unlimited.
type loginLimit func(http.Handler) http.Handler

type loginLimitIn struct {
	dig.In
	Config  *config.Config
	Logger  logx.Logger
	Redis   *redis.Client
	Counter prometheus.Counter `name:"login_rate_limit_exceeded_total"`
}

func newLoginLimit(in loginLimitIn) loginLimit {
	if in.Redis == nil {
		return nil
	}
	limiter := ratelimit.NewRedisWindowLimiter(
		in.Redis,
		loginLimitPrefix,
		in.Config.LoginLimit.Limit,
		in.Config.LoginLimit.Window,
		in.Logger,
	)
	return ratelimit.New(in.Logger, in.Counter, limiter, ratelimit.WithScope("login")).Handler()
}
