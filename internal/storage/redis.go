package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Backend = (*RedisBackend)(nil)

const rateLimitKeyPrefix = "ratelimit:"

type RedisConfig struct {
	Client *redis.Client
}

type RedisBackend struct {
	client     *redis.Client
	rateLimit  int
	rateWindow time.Duration
}

// NewRedisBackend allows burst requests per sliding window of burst/ratePerSec,
// which matches the in-memory token bucket's burst and long-run rate.
func NewRedisBackend(cfg RedisConfig, ratePerSec float64, burst int) (*RedisBackend, error) {
	window, err := slidingWindow(ratePerSec, burst)
	if err != nil {
		return nil, err
	}
	return &RedisBackend{
		client:     cfg.Client,
		rateLimit:  burst,
		rateWindow: window,
	}, nil
}

func slidingWindow(ratePerSec float64, burst int) (time.Duration, error) {
	if ratePerSec <= 0 {
		return 0, fmt.Errorf("rate limit must be positive, got %v", ratePerSec)
	}
	if burst <= 0 {
		return 0, fmt.Errorf("rate burst must be positive, got %d", burst)
	}
	return time.Duration(float64(burst) / ratePerSec * float64(time.Second)), nil
}

func (r *RedisBackend) Allow(ctx context.Context, key string) (RateLimitResult, error) {
	params := rateLimitParams{
		window: r.rateWindow,
		limit:  r.rateLimit,
		ttl:    r.rateWindow + time.Second,
	}

	allowed, err := runRateLimitScript(ctx, r.client, rateLimitKeyPrefix+key, params)
	if err != nil {
		return RateLimitResult{}, fmt.Errorf("failed to run rate limit script: %w", err)
	}

	return RateLimitResult{
		Allowed:    allowed,
		RetryAfter: r.rateWindow,
	}, nil
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}

func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
