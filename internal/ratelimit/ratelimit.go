package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyFormat = "ratelimit:%s:%s"

// Limiter decides whether an action identified by key may proceed.
type Limiter interface {
	// Allow reports whether the action is allowed and, if not, how long
	// until the window resets.
	Allow(ctx context.Context, action, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

// RedisLimiter is a fixed-window counter shared by every API instance.
type RedisLimiter struct {
	client redis.Cmdable
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(client redis.Cmdable) *RedisLimiter {
	return &RedisLimiter{client: client}
}

func (l *RedisLimiter) Allow(ctx context.Context, action, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	k := fmt.Sprintf(keyFormat, action, key)

	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("incr %s: %w", k, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, k, window).Err(); err != nil {
			return false, 0, fmt.Errorf("expire %s: %w", k, err)
		}
	}
	if count <= int64(limit) {
		return true, 0, nil
	}

	ttl, err := l.client.TTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("ttl %s: %w", k, err)
	}
	if ttl < 0 {
		// the key lost its expiry; restore it so the user is not locked out
		if err := l.client.Expire(ctx, k, window).Err(); err != nil {
			return false, 0, fmt.Errorf("restore expiry %s: %w", k, err)
		}
		ttl = window
	}
	return false, ttl, nil
}
