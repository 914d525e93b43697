// Copyright (c) 2026 Hireline. All rights reserved.

package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hireline/hireline/internal/platform/constants"
)

// # Login Throttling Constraints

const (
	// MaxLoginFailures is how many consecutive failures an email may
	// accumulate before further attempts are refused.
	MaxLoginFailures = 10

	// LoginFailureWindow is the rolling window after which the counter expires.
	LoginFailureWindow = 15 * time.Minute
)

// RedisLoginThrottle implements LoginThrottle using Redis counters with TTL.
type RedisLoginThrottle struct {
	client *redis.Client
}

// NewLoginThrottle creates a new Redis-backed LoginThrottle.
func NewLoginThrottle(client *redis.Client) *RedisLoginThrottle {
	return &RedisLoginThrottle{client: client}
}

var _ LoginThrottle = (*RedisLoginThrottle)(nil)

// TooManyFailures reports whether the email has exhausted its attempts
// within the current window.
func (throttle *RedisLoginThrottle) TooManyFailures(ctx context.Context, email string) (bool, error) {
	count, err := throttle.client.Get(ctx, throttleKey(email)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis_login_throttle_get_failed: %w", err)
	}

	return count >= MaxLoginFailures, nil
}

// RecordFailure counts one failed attempt. The window TTL starts with the
// first failure and is not extended by later ones.
func (throttle *RedisLoginThrottle) RecordFailure(ctx context.Context, email string) error {
	key := throttleKey(email)

	count, err := throttle.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis_login_throttle_incr_failed: %w", err)
	}

	if count == 1 {
		if err := throttle.client.Expire(ctx, key, LoginFailureWindow).Err(); err != nil {
			return fmt.Errorf("redis_login_throttle_expire_failed: %w", err)
		}
	}

	return nil
}

// Clear resets the counter after a successful login.
func (throttle *RedisLoginThrottle) Clear(ctx context.Context, email string) error {
	if err := throttle.client.Del(ctx, throttleKey(email)).Err(); err != nil {
		return fmt.Errorf("redis_login_throttle_clear_failed: %w", err)
	}

	return nil
}

// throttleKey normalizes the email so case variants share one counter.
func throttleKey(email string) string {
	return constants.RedisPrefixLoginFail + strings.ToLower(email)
}
