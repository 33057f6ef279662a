// Package ratelimit bounds sensitive requests per origin with a fixed
// window counter backed by Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	autherror "github.com/careledger/auth-service/internal/errors"
	"github.com/redis/go-redis/v9"
)

// Limiter rejects requests once an origin exceeds max hits inside the
// current window. Counters reset at the window boundary; there is no
// sliding smoothing.
type Limiter struct {
	redis  *redis.Client
	max    int
	window time.Duration
}

func NewLimiter(redisClient *redis.Client, max int, window time.Duration) *Limiter {
	return &Limiter{
		redis:  redisClient,
		max:    max,
		window: window,
	}
}

// Allow counts one hit for key and reports whether it is within the limit.
// ErrRateLimited means over the limit; ErrUnavailable means the counter
// store could not be reached. The limiter fails closed.
func (l *Limiter) Allow(ctx context.Context, key string) error {
	redisKey := "rl:" + key

	count, err := l.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", autherror.ErrUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", autherror.ErrUnavailable, err)
		}
	}

	if count > int64(l.max) {
		return autherror.ErrRateLimited
	}

	return nil
}
