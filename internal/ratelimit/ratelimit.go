package ratelimit

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jitsports/sportsroom/pkg/logger"
)

// Limiter throttles code requests per address. A policy knob, not a
// correctness mechanism.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type redisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) Limiter {
	return &redisLimiter{client: client, limit: limit, window: window}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	// Hash the key so raw addresses never land in redis.
	sum := sha256.Sum256([]byte(key))
	rlKey := fmt.Sprintf("otp:rl:%x", sum)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, rlKey)
	pipe.Expire(ctx, rlKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		// Fail open on redis outage; throttling is best effort.
		logger.WarnContext(ctx, "Rate limiter unavailable, allowing request", "error", err)
		return true, nil
	}

	return incr.Val() <= int64(l.limit), nil
}

// Unlimited never throttles. Used in tests and dev setups without redis.
func Unlimited() Limiter { return unlimited{} }

type unlimited struct{}

func (unlimited) Allow(context.Context, string) (bool, error) { return true, nil }
