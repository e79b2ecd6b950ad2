// Package ratelimiter counts attempts per key in redis and rejects keys over their budget.
package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"anoa.com/taskmanager/pkg/apperror"
	"github.com/redis/go-redis/v9"
)

type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}

// AttemptLimiter allows MaxAttempts hits per key inside a fixed window that starts at the first hit.
// A nil redis client disables limiting.
type AttemptLimiter struct {
	rdb         *redis.Client
	prefix      string
	maxAttempts int
	window      time.Duration
}

func NewAttemptLimiter(rdb *redis.Client, prefix string, maxAttempts int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{rdb: rdb, prefix: prefix, maxAttempts: maxAttempts, window: window}
}

func (l *AttemptLimiter) enabled() bool {
	return l != nil && l.rdb != nil && l.maxAttempts > 0
}

func (l *AttemptLimiter) key(id string) string {
	return fmt.Sprintf("rate_limit:%s:%s", l.prefix, id)
}

// Check returns a *RateLimitError once id has used up its attempts.
func (l *AttemptLimiter) Check(ctx context.Context, id string) error {
	if !l.enabled() {
		return nil
	}

	count, err := l.rdb.Get(ctx, l.key(id)).Int()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	if count < l.maxAttempts {
		return nil
	}

	ttl, err := l.rdb.TTL(ctx, l.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to read rate limit ttl: %w", err)
	}
	if ttl < 0 {
		ttl = l.window
	}

	return &RateLimitError{
		Message:    fmt.Sprintf("too many attempts, retry in %.0f seconds", ttl.Seconds()),
		RetryAfter: ttl,
	}
}

// Hit records one attempt. The window starts with the first attempt.
func (l *AttemptLimiter) Hit(ctx context.Context, id string) error {
	if !l.enabled() {
		return nil
	}

	key := l.key(id)
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to record attempt in redis: %w", err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("failed to set attempt window: %w", err)
		}
	}
	return nil
}

func (l *AttemptLimiter) Clear(ctx context.Context, id string) error {
	if !l.enabled() {
		return nil
	}
	return l.rdb.Del(ctx, l.key(id)).Err()
}
