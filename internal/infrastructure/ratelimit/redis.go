// Package ratelimit implements fixed-window request limits shared by every
// API process through Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule is a named limit of Max requests per Window.
type Rule struct {
	Name   string
	Max    int
	Window time.Duration
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAfter is the time left in the current window.
	ResetAfter time.Duration
}

// RedisLimiter counts requests per client in window-aligned Redis keys.
type RedisLimiter struct {
	client *redis.Client
	rule   Rule
	now    func() time.Time
}

// NewRedisLimiter creates a limiter for rule.
func NewRedisLimiter(client *redis.Client, rule Rule) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		rule:   rule,
		now:    time.Now,
	}
}

// Rule returns the configured rule.
func (l *RedisLimiter) Rule() Rule {
	return l.rule
}

// Allow records one request from clientKey and reports whether it is within
// the limit. On a Redis error the returned decision allows the request.
func (l *RedisLimiter) Allow(ctx context.Context, clientKey string) (Decision, error) {
	now := l.now()
	windowStart := now.Truncate(l.rule.Window)
	resetAfter := windowStart.Add(l.rule.Window).Sub(now)
	key := fmt.Sprintf("ratelimit:%s:%s:%d", l.rule.Name, clientKey, windowStart.Unix())

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, l.rule.Window)
		return nil
	})
	if err != nil {
		return Decision{Allowed: true, Limit: l.rule.Max, Remaining: l.rule.Max, ResetAfter: resetAfter},
			fmt.Errorf("rate limiter %s (failing open): %w", l.rule.Name, err)
	}

	count := int(incr.Val())
	remaining := l.rule.Max - count
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:    count <= l.rule.Max,
		Limit:      l.rule.Max,
		Remaining:  remaining,
		ResetAfter: resetAfter,
	}, nil
}
