// Package server 路由配置与核心基础设施
//
// 本文件定义 HTTP API 路由，将请求分发到各领域独立包。
// 文件组织：
//   - handler.go: Handler 定义、路由、CORS、健康检查
//   - metrics.go: Prometheus 指标
package server

import (
	"net/http"

	"books-admin/internal/apiserver/auth"
	"books-admin/internal/apiserver/book"
	"books-admin/internal/apiserver/respond"
	"books-admin/internal/shared/cache"
	"books-admin/internal/shared/query"
	"books-admin/internal/shared/storage"
)

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 路由请求到对应的领域处理器
//   - 管理存储层连接
//   - 装配指标 / 认证 / CORS 中间件
type Handler struct {
	store      storage.Store    // MongoDB 存储层（持久化业务数据）
	statsCache cache.StatsCache // 统计结果缓存（Redis 或 no-op）

	authConfig auth.Config  // JWT / bcrypt / 管理员引导配置
	bounds     query.Bounds // 分页上下界

	metrics *Metrics // Prometheus 指标
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.Store, statsCache cache.StatsCache, authConfig auth.Config, bounds query.Bounds) *Handler {
	if statsCache == nil {
		statsCache = cache.NewNoOpCache()
	}
	return &Handler{
		store:      store,
		statsCache: statsCache,
		authConfig: authConfig,
		bounds:     bounds,
		metrics:    NewMetrics("books"),
	}
}

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查（含存储层连通性）
//
// 图书管理 (Book):
//   - GET    /api/v1/books                    - 列表（过滤/排序/检索/分页）
//   - POST   /api/v1/books                    - 创建
//   - GET    /api/v1/books/{id}               - 按 ID 获取
//   - GET    /api/v1/books/isbn/{isbn}        - 按 ISBN 获取（HEAD 可探测存在性）
//   - GET    /api/v1/books/genre/{genre}      - 按分类列表
//   - GET    /api/v1/books/author/{author}    - 按作者列表
//   - GET    /api/v1/books/search?q=          - 全文检索
//   - GET    /api/v1/books/stats              - 聚合统计
//   - GET    /api/v1/books/count              - 计数
//   - PUT    /api/v1/books/{id}               - 全量更新
//   - PATCH  /api/v1/books/{id}               - 部分更新
//   - PATCH  /api/v1/books/{id}/stock         - 库存增量调整
//   - DELETE /api/v1/books/{id}               - 软删除（下架）
//   - DELETE /api/v1/books/{id}/permanent     - 永久删除（仅管理员）
//
// 认证 (Auth):
//   - POST   /api/v1/auth/register            - 注册
//   - POST   /api/v1/auth/login               - 登录
//   - POST   /api/v1/auth/refresh             - 刷新令牌
//   - GET    /api/v1/auth/profile             - 读取资料
//   - PUT    /api/v1/auth/profile             - 更新资料
//   - POST   /api/v1/auth/change-password     - 修改密码
//   - GET    /api/v1/auth/users               - 用户列表（仅管理员）
//
// 中间件自外向内：CORS → 认证 → 指标 → 业务路由。
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// Book 接口
	bookSvc := book.NewService(h.store, h.statsCache, h.bounds)
	bookHandler := book.NewHandler(bookSvc)
	bookHandler.RegisterRoutes(mux)

	// Auth 接口
	authHandler := auth.NewHandler(h.store, h.authConfig)
	authHandler.RegisterRoutes(mux)

	// 应用指标中间件
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用认证中间件
	authedHandler := auth.Middleware(h.store, h.authConfig)(apiHandler)

	// 应用 CORS 中间件
	return corsMiddleware(authedHandler)
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态，连带报告存储层连通性。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respond.Error(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	respond.JSON(w, http.StatusOK, "service healthy", map[string]string{
		"status":   "ok",
		"database": "up",
	})
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
