package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/config"
)

// RedisService 仅保存限流计数，不缓存任何分析结果
type RedisService struct {
	client *redis.Client
}

func NewRedisService(cfg *config.RedisConfig) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisService{
		client: client,
	}
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// IncrWindow 对窗口计数器加一并设置过期时间，返回加一后的值
func (s *RedisService) IncrWindow(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}
