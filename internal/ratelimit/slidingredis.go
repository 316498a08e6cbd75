// Package ratelimit counts attempts in a Redis sliding window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one attempt.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter implements a sliding window over Redis sorted sets. Every attempt,
// admitted or not, occupies the window.
type Limiter struct {
	Client *redis.Client
	Prefix string
	Now    func() time.Time
}

func (l Limiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Allow records an attempt for key.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, limit int) (Decision, error) {
	now := l.now()
	d := Decision{Allowed: true, Limit: limit, Remaining: limit, ResetAt: now.Add(window)}
	if l.Client == nil || limit <= 0 || window <= 0 {
		return d, nil
	}

	redisKey := l.Prefix + key
	cutoff := float64(now.Add(-window).UnixNano())
	member := fmt.Sprintf("%d:%s", now.UnixNano(), uuid.NewString())

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("%f", cutoff))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	count := pipe.ZCard(ctx, redisKey)
	oldest := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("ratelimit %s: %w", key, err)
	}

	current := int(count.Val())
	d.Remaining = max(0, d.Limit-current)
	d.Allowed = current <= d.Limit
	if first := oldest.Val(); len(first) > 0 {
		d.ResetAt = time.Unix(0, int64(first[0].Score)).Add(window)
	}
	return d, nil
}

// Reset forgets every attempt recorded for key.
func (l Limiter) Reset(ctx context.Context, key string) error {
	if l.Client == nil {
		return nil
	}
	return l.Client.Del(ctx, l.Prefix+key).Err()
}

// Policy binds a limiter to one window and budget.
type Policy struct {
	Limiter Limiter
	Window  time.Duration
	Max     int
}

// Allow records an attempt for key under the policy.
func (p Policy) Allow(ctx context.Context, key string) (Decision, error) {
	return p.Limiter.Allow(ctx, key, p.Window, p.Max)
}

// Reset clears key.
func (p Policy) Reset(ctx context.Context, key string) error {
	return p.Limiter.Reset(ctx, key)
}
