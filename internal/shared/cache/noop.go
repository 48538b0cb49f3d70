package cache

import (
	"context"

	"books-admin/internal/shared/model"
)

// NoOpCache 空操作的 StatsCache 实现（未配置 Redis 或测试时使用）
type NoOpCache struct{}

var _ StatsCache = (*NoOpCache)(nil)

// NewNoOpCache 创建 NoOpCache 实例
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) GetStats(ctx context.Context) (*model.BookStats, error) {
	return nil, nil
}

func (c *NoOpCache) SetStats(ctx context.Context, stats *model.BookStats) error {
	return nil
}

func (c *NoOpCache) InvalidateStats(ctx context.Context) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
