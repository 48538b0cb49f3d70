// Package redis Redis 缓存实现
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"books-admin/internal/shared/cache"
	"books-admin/internal/shared/model"
)

// keyBookStats 统计缓存键
const keyBookStats = "books:stats"

// Store Redis 缓存存储
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

var _ cache.StatsCache = (*Store)(nil)

// NewStoreFromURL 从 URL 创建 Redis 缓存实例
//
// ttl: 统计缓存的存活时间，≤0 时回退为 60s
func NewStoreFromURL(redisURL string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = 60 * time.Second
	}

	log.Printf("[Redis/Cache] Connected to %s", opts.Addr)
	return &Store{client: client, ttl: ttl}, nil
}

// NewStoreFromClient 从现有 Redis 客户端创建缓存实例（测试用）
func NewStoreFromClient(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Store{client: client, ttl: ttl}
}

// Close 关闭 Redis 连接
func (s *Store) Close() error {
	return s.client.Close()
}

// GetStats 读取统计缓存，未命中返回 (nil, nil)
func (s *Store) GetStats(ctx context.Context) (*model.BookStats, error) {
	data, err := s.client.Get(ctx, keyBookStats).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats model.BookStats
	if err := json.Unmarshal(data, &stats); err != nil {
		// 缓存内容损坏：当作未命中处理，留给 TTL 自然过期
		log.Printf("[Redis/Cache] corrupt stats payload: %v", err)
		return nil, nil
	}
	return &stats, nil
}

// SetStats 写入统计缓存（带 TTL）
func (s *Store) SetStats(ctx context.Context, stats *model.BookStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyBookStats, data, s.ttl).Err()
}

// InvalidateStats 写操作后主动失效统计缓存
func (s *Store) InvalidateStats(ctx context.Context) error {
	return s.client.Del(ctx, keyBookStats).Err()
}
