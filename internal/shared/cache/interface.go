// Package cache 缓存层抽象接口
//
// 提供聚合统计结果的短 TTL 缓存，生产环境由 Redis 实现；
// 未配置 Redis 时回退到 NoOp 实现（每次都走存储层聚合）。
package cache

import (
	"context"

	"books-admin/internal/shared/model"
)

// StatsCache 图书统计缓存接口
//
// Get 未命中时返回 (nil, nil)。Invalidate 为尽力而为：
// 失败只记录日志，不影响写操作本身。
type StatsCache interface {
	GetStats(ctx context.Context) (*model.BookStats, error)
	SetStats(ctx context.Context, stats *model.BookStats) error
	InvalidateStats(ctx context.Context) error
	Close() error
}
