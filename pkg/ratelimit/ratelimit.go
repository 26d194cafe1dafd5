package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// keyspace 隔离限流键，避免与业务缓存键冲突
const keyspace = "angelnet:rl:"

// Limit 限流规则
type Limit struct {
	Rate   int
	Period time.Duration
	Burst  int
}

// PerSecond 按 QPS 构造限流规则
func PerSecond(qps, burst int) Limit {
	return Limit{Rate: qps, Period: time.Second, Burst: burst}
}

// Result 单次限流判定结果
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAfter time.Duration
	RetryAfter time.Duration
}

// Limiter 限流器接口，便于测试替换
type Limiter interface {
	Allow(ctx context.Context, key string, limit Limit) (Result, error)
}

// RedisLimiter 基于 redis_rate (GCRA) 的限流实现
type RedisLimiter struct {
	inner *redis_rate.Limiter
}

func NewRedisLimiter(rdb *redis.Client) *RedisLimiter {
	return &RedisLimiter{inner: redis_rate.NewLimiter(rdb)}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit Limit) (Result, error) {
	res, err := l.inner.Allow(ctx, keyspace+key, redis_rate.Limit{
		Rate:   limit.Rate,
		Period: limit.Period,
		Burst:  limit.Burst,
	})
	if err != nil {
		return Result{}, fmt.Errorf("rate limit check: %w", err)
	}
	return Result{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		ResetAfter: res.ResetAfter,
		RetryAfter: res.RetryAfter,
	}, nil
}
