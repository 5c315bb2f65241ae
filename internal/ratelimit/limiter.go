// Package ratelimit throttles login failures and forgot-password requests with Redis fixed windows.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRateLimited is returned once a window's budget is spent.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis failures; callers decide whether to fail open.
	ErrRedisUnavailable = errors.New("rate limiter unavailable")
)

// Config holds the window budgets.
type Config struct {
	LoginMaxAttempts  int
	LoginWindow       time.Duration
	ForgotMaxRequests int
	ForgotWindow      time.Duration
}

// Limiter counts events per key in Redis. A nil *Limiter allows everything.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a Limiter backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{redis: redisClient, config: cfg}
}

// CheckLogin returns ErrRateLimited when the account identifier or the IP has used up its failed-login budget.
// It does not count the attempt; RecordLoginFailure does.
func (l *Limiter) CheckLogin(ctx context.Context, tenantCode, email, ip string) error {
	if l == nil {
		return nil
	}
	if err := l.checkCounter(ctx, loginUserKey(tenantCode, email), l.config.LoginMaxAttempts); err != nil {
		return err
	}
	if ip != "" {
		return l.checkCounter(ctx, loginIPKey(ip), l.config.LoginMaxAttempts)
	}
	return nil
}

// RecordLoginFailure counts one failed login for the identifier and the IP.
func (l *Limiter) RecordLoginFailure(ctx context.Context, tenantCode, email, ip string) error {
	if l == nil {
		return nil
	}
	if _, err := l.incrementWithTTL(ctx, loginUserKey(tenantCode, email), l.config.LoginWindow); err != nil {
		return err
	}
	if ip != "" {
		if _, err := l.incrementWithTTL(ctx, loginIPKey(ip), l.config.LoginWindow); err != nil {
			return err
		}
	}
	return nil
}

// ResetLogin clears the identifier's failed-login counter after a successful login.
func (l *Limiter) ResetLogin(ctx context.Context, tenantCode, email string) error {
	if l == nil {
		return nil
	}
	if err := l.redis.Del(ctx, loginUserKey(tenantCode, email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// AllowForgot counts one forgot-password request from ip and returns ErrRateLimited past the budget.
func (l *Limiter) AllowForgot(ctx context.Context, ip string) error {
	if l == nil || ip == "" {
		return nil
	}
	count, err := l.incrementWithTTL(ctx, forgotIPKey(ip), l.config.ForgotWindow)
	if err != nil {
		return err
	}
	if count > int64(l.config.ForgotMaxRequests) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string, maxAttempts int) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count >= int64(maxAttempts) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	// Fixed window: the TTL is set on the first hit only.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return count, nil
}

func loginUserKey(tenantCode, email string) string {
	return "rl:login:user:" + strings.ToLower(tenantCode) + ":" + strings.ToLower(email)
}

func loginIPKey(ip string) string { return "rl:login:ip:" + ip }

func forgotIPKey(ip string) string { return "rl:forgot:ip:" + ip }
