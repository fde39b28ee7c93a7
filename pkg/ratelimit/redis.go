package ratelimit

import (
	"context"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akinalp/cordlite/pkg/logger"
)

// RedisLoginLimiter is a fixed-window limiter whose counters live in Redis,
// so every process behind a load balancer shares one budget per IP.
//
// Redis errors fail open: an attempt is allowed and the error logged, since a
// cache outage must not lock every user out.
type RedisLoginLimiter struct {
	rdb         *redis.Client
	maxAttempts int
	period      time.Duration
	prefix      string
	timeout     time.Duration
}

// NewRedisLoginLimiter allows maxAttempts per period per key.
func NewRedisLoginLimiter(rdb *redis.Client, maxAttempts int, period time.Duration) *RedisLoginLimiter {
	return &RedisLoginLimiter{
		rdb:         rdb,
		maxAttempts: maxAttempts,
		period:      period,
		prefix:      "ratelimit:login:",
		timeout:     time.Second,
	}
}

func (l *RedisLoginLimiter) Allow(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	k := l.prefix + key
	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.period)
		return nil
	})
	if err != nil {
		logger.Log.Warnw("[ratelimit] redis error, allowing attempt", "key", k, "error", err)
		return true
	}
	return incr.Val() <= int64(l.maxAttempts)
}

func (l *RedisLoginLimiter) Reset(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	if err := l.rdb.Del(ctx, l.prefix+key).Err(); err != nil {
		logger.Log.Warnw("[ratelimit] redis reset failed", "key", key, "error", err)
	}
}

func (l *RedisLoginLimiter) RetryAfterSeconds(key string) int {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	ttl, err := l.rdb.PTTL(ctx, l.prefix+key).Result()
	if err != nil || ttl <= 0 {
		return 0
	}
	return int(math.Ceil(ttl.Seconds()))
}
