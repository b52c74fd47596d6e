package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vishalseelam/ElectrocardiogramRiskEngine/config"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter 按客户端限流
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// idleTTL 超过该时长未访问的客户端限流器会被清理
const idleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter 进程内令牌桶，每个 key 一个 rate.Limiter
type LocalLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	rate      rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func NewLocalLimiter(cfg *config.RateLimitConfig) *LocalLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &LocalLimiter{
		limiters:  make(map[string]*clientLimiter),
		rate:      rate.Limit(float64(cfg.RequestsPerMinute) / 60.0),
		burst:     burst,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *LocalLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= idleTTL {
		l.sweep(now)
	}

	cl, ok := l.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// sweep 删除空闲客户端，调用方需持有锁
func (l *LocalLimiter) sweep(now time.Time) {
	for key, cl := range l.limiters {
		if now.Sub(cl.lastSeen) >= idleTTL {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}

// Len 当前跟踪的客户端数量
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *LocalLimiter) Allow(_ context.Context, key string) bool {
	return l.get(key).Allow()
}

// windowCounter 固定窗口计数存储
type windowCounter interface {
	IncrWindow(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RedisLimiter 多副本共享的固定窗口限流，Redis 异常时退回进程内限流
type RedisLimiter struct {
	counter  windowCounter
	limit    int64
	window   time.Duration
	fallback Limiter
	now      func() time.Time
}

func NewRedisLimiter(counter windowCounter, cfg *config.RateLimitConfig, fallback Limiter) *RedisLimiter {
	return &RedisLimiter{
		counter:  counter,
		limit:    int64(cfg.RequestsPerMinute),
		window:   time.Minute,
		fallback: fallback,
		now:      time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	slot := l.now().Unix() / int64(l.window.Seconds())
	windowKey := fmt.Sprintf("ratelimit:analyze:%s:%d", key, slot)

	count, err := l.counter.IncrWindow(ctx, windowKey, 2*l.window)
	if err != nil {
		utils.Logger.Warn("redis rate limit unavailable, using local limiter", zap.Error(err))
		return l.fallback.Allow(ctx, key)
	}
	return count <= l.limit
}
