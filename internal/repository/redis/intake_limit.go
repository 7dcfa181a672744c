package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/luiso2/sleep-admin-service/internal/core/port"
)

// IntakeLimiter enforces a fixed-window rate limit backed by Redis INCR.
// Windows are keyed by identifier and window start, so a limiter outage
// fails open at the call site rather than dropping webhooks here.
type IntakeLimiter struct {
	client *redis.Client
	prefix string
}

// NewIntakeLimiter constructs a limiter with the given key prefix.
func NewIntakeLimiter(client *redis.Client, prefix string) *IntakeLimiter {
	if prefix == "" {
		prefix = "intake:rate"
	}
	return &IntakeLimiter{client: client, prefix: prefix}
}

// Allow counts the attempt and reports whether it fits the window.
func (l *IntakeLimiter) Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, time.Duration, error) {
	if limit <= 0 || window <= 0 {
		return true, 0, nil
	}

	now := time.Now()
	windowStart := now.Truncate(window)
	key := fmt.Sprintf("%s:%s:%d", l.prefix, identifier, windowStart.Unix())

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis incr intake: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return false, 0, fmt.Errorf("redis expire intake: %w", err)
		}
	}

	if int(count) > limit {
		retryAfter := windowStart.Add(window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter, nil
	}

	return true, 0, nil
}

var _ port.IntakeLimiter = (*IntakeLimiter)(nil)
