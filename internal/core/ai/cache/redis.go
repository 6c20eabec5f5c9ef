package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nutriplan-ai/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "recipe:response:"

// RedisStore Redis 快取後端
// 跨行程部署使用，以 TTL 控制成長；介面語義與 MemoryStore 一致
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore 創建 Redis 快取後端
func NewRedisStore(addr string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}, nil
}

// Get 獲取快取值，未命中回傳 (nil, nil)
func (s *RedisStore) Get(ctx context.Context, fingerprint string) (*common.AIRecipeResponse, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+fingerprint).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	var resp common.AIRecipeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache: %w", err)
	}
	return &resp, nil
}

// Put 設置快取值，同鍵首次寫入有效（SETNX）
func (s *RedisStore) Put(ctx context.Context, fingerprint string, resp *common.AIRecipeResponse) error {
	if resp == nil {
		return nil
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if err := s.client.SetNX(ctx, redisKeyPrefix+fingerprint, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Clear 清除本服務寫入的條目
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	return iter.Err()
}

// Size 回傳條目數
func (s *RedisStore) Size(ctx context.Context) (int, error) {
	count := 0
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count, iter.Err()
}

// Close 關閉連接
func (s *RedisStore) Close() error {
	return s.client.Close()
}
