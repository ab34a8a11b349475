package storage

import (
	"context"
	"errors"
	"fmt"

	"recipe-box/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
)

// Redis 以 Redis 字串鍵作為儲存，不設過期時間
type Redis struct {
	client *redis.Client
}

// NewRedis 創建 Redis 儲存並測試連接
func NewRedis(cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Redis{client: client}, nil
}

// NewRedisFromClient 使用既有的客戶端
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get 讀取值
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrKeyNotFound
		}
		return "", err
	}
	return value, nil
}

// Set 寫入值
func (r *Redis) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

// Ping 檢查連接
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close 關閉連接
func (r *Redis) Close() error {
	return r.client.Close()
}
