package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	testlog "service-dispatch/internal/testutil"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestRedisWindowLimiter_LimitsWithinWindow(t *testing.T) {
	mr, c := newRedis(t)
	ctx := context.Background()
	l := NewRedisWindowLimiter(c, "login:", 2, time.Minute, nil)

	require.True(t, l.Allow(ctx, "1.2.3.4"))
	require.True(t, l.Allow(ctx, "1.2.3.4"))
	require.False(t, l.Allow(ctx, "1.2.3.4"))
	require.True(t, l.Allow(ctx, "5.6.7.8"), "keys are independent")

	ttl := mr.TTL("login:1.2.3.4")
	require.Greater(t, ttl, time.Duration(0))
	require.LessOrEqual(t, ttl, time.Minute)

	mr.FastForward(time.Minute + time.Second)
	require.True(t, l.Allow(ctx, "1.2.3.4"), "new window after expiry")
}

func TestRedisWindowLimiter_WindowDoesNotSlide(t *testing.T) {
	mr, c := newRedis(t)
	ctx := context.Background()
	l := NewRedisWindowLimiter(c, "login:", 5, time.Minute, nil)

	require.True(t, l.Allow(ctx, "k"))
	mr.FastForward(40 * time.Second)
	require.True(t, l.Allow(ctx, "k"))

	require.LessOrEqual(t, mr.TTL("login:k"), 20*time.Second)
}

func TestRedisWindowLimiter_FailsOpen(t *testing.T) {
	mr, c := newRedis(t)
	rec := testlog.New()
	l := NewRedisWindowLimiter(c, "login:", 1, time.Minute, rec.Logger())

	mr.Close()

	require.True(t, l.Allow(context.Background(), "k"))
	require.True(t, l.Allow(context.Background(), "k"))

	entries := rec.Entries()
	require.NotEmpty(t, entries)
	require.Equal(t, "rate limiter unavailable, allowing request", entries[0].Msg)
}
