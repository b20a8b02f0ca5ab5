package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter is a Redis-backed fixed-window rate limiter. It is an injected
// component with explicit window and capacity, not process-global state, so
// multiple limiters with different budgets can coexist.
type Limiter struct {
	client   *redis.Client
	logger   *zap.Logger
	window   time.Duration
	capacity int
	prefix   string
}

// NewLimiter constructs a limiter. A nil client disables limiting (Allow
// always returns true), which keeps local development without Redis working.
func NewLimiter(client *redis.Client, logger *zap.Logger, prefix string, window time.Duration, capacity int) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = time.Minute
	}
	if capacity <= 0 {
		capacity = 30
	}
	return &Limiter{
		client:   client,
		logger:   logger,
		window:   window,
		capacity: capacity,
		prefix:   prefix,
	}
}

// Allow reports whether the caller identified by key may proceed. The counter
// key expires with the window; the first increment in a window sets the TTL.
// Redis errors fail open with a warning rather than blocking traffic.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil {
		return true
	}

	windowKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, time.Now().Unix()/int64(l.window.Seconds()))

	count, err := l.client.Incr(ctx, windowKey).Result()
	if err != nil {
		l.logger.Warn("rate limiter unavailable, failing open", zap.Error(err))
		return true
	}
	if count == 1 {
		if err := l.client.Expire(ctx, windowKey, l.window).Err(); err != nil {
			l.logger.Warn("rate limiter expire failed", zap.Error(err))
		}
	}
	return count <= int64(l.capacity)
}

// Capacity returns the per-window request budget.
func (l *Limiter) Capacity() int {
	return l.capacity
}

// Window returns the limiter window.
func (l *Limiter) Window() time.Duration {
	return l.window
}
