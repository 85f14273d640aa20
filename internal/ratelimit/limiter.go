package ratelimit

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/membership-service/internal/config"
)

// ErrLimited is returned when an identifier exhausted its attempt budget.
var ErrLimited = errors.New("too many attempts")

// ErrUnavailable wraps redis transport failures.
var ErrUnavailable = errors.New("rate limiter unavailable")

// Limiter throttles login and refresh attempts with redis counters keyed by
// identifier. Counters carry a cooldown TTL and are cleared on success.
type Limiter struct {
	redis *redis.Client
	cfg   config.RateLimitConfig
}

// New creates a limiter backed by the given redis client. A nil client or a
// disabled config yields a no-op limiter.
func New(client *redis.Client, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{redis: client, cfg: cfg}
}

func (l *Limiter) enabled() bool {
	return l != nil && l.redis != nil && l.cfg.Enabled
}

// CheckLogin reports whether the identifier is within its login budget.
func (l *Limiter) CheckLogin(ctx context.Context, identifier string) error {
	if !l.enabled() {
		return nil
	}
	return l.check(ctx, loginKey(identifier), l.cfg.MaxLoginAttempts)
}

// RecordLoginFailure counts a failed attempt and starts the cooldown window.
func (l *Limiter) RecordLoginFailure(ctx context.Context, identifier string) error {
	if !l.enabled() {
		return nil
	}
	key := loginKey(identifier)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.cfg.LoginCooldown()).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if count > int64(l.cfg.MaxLoginAttempts) {
		return ErrLimited
	}
	return nil
}

// ResetLogin clears the failure counter after a successful login.
func (l *Limiter) ResetLogin(ctx context.Context, identifier string) error {
	if !l.enabled() {
		return nil
	}
	if err := l.redis.Del(ctx, loginKey(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// CheckRefresh increments the refresh counter and enforces the budget.
func (l *Limiter) CheckRefresh(ctx context.Context, memberID string) error {
	if !l.enabled() {
		return nil
	}
	key := refreshKey(memberID)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.cfg.RefreshCooldown()).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if count > int64(l.cfg.MaxRefreshAttempts) {
		return ErrLimited
	}
	return nil
}

func (l *Limiter) check(ctx context.Context, key string, max int) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count >= int64(max) {
		return ErrLimited
	}
	return nil
}

func loginKey(identifier string) string {
	return "rl:login:" + identifier
}

func refreshKey(memberID string) string {
	return "rl:refresh:" + memberID
}
