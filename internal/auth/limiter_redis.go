package auth

import (
	"context"
	"errors"
	"time"

	"voicemail-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "auth:ratelimit:"

// RedisLimiter stores failure counters in redis with a sliding TTL.
// Counters expire on their own; a successful login deletes them early.
type RedisLimiter struct {
	rdb         *redis.Client
	maxAttempts int
	window      time.Duration
	lockout     time.Duration
}

func NewRedisLimiter(rdb *redis.Client, maxAttempts int, window, lockout time.Duration) *RedisLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	if lockout <= 0 {
		lockout = window
	}
	return &RedisLimiter{rdb: rdb, maxAttempts: maxAttempts, window: window, lockout: lockout}
}

func (l *RedisLimiter) key(ip string) string {
	return rateLimitKeyPrefix + ip
}

func (l *RedisLimiter) Failures(ctx context.Context, ip string) (int, time.Time, error) {
	pipe := l.rdb.Pipeline()
	getCmd := pipe.Get(ctx, l.key(ip))
	ttlCmd := pipe.PTTL(ctx, l.key(ip))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return 0, time.Time{}, err
	}

	count, err := getCmd.Int()
	if errors.Is(err, redis.Nil) {
		return 0, time.Time{}, nil
	}
	if err != nil {
		return 0, time.Time{}, err
	}

	var retryAfter time.Time
	if ttl, err := ttlCmd.Result(); err == nil && ttl > 0 {
		retryAfter = time.Now().Add(ttl)
	}
	return count, retryAfter, nil
}

func (l *RedisLimiter) RecordFailure(ctx context.Context, ip string) (int, error) {
	return utils.RecordAuthFailure(ctx, l.rdb, l.key(ip), l.maxAttempts, l.window, l.lockout)
}

func (l *RedisLimiter) Clear(ctx context.Context, ip string) error {
	return l.rdb.Del(ctx, l.key(ip)).Err()
}
