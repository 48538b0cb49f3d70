// Package book 图书领域 - 查询服务与 HTTP 处理
package book

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/url"
	"regexp"
	"time"

	"books-admin/internal/shared/cache"
	"books-admin/internal/shared/model"
	"books-admin/internal/shared/query"
	"books-admin/internal/shared/storage"
	"books-admin/internal/shared/validate"
)

// ErrStockNegative 库存调整会导致负库存，整个操作被拒绝
var ErrStockNegative = errors.New("stock adjustment would result in negative stock")

// FilterFields 列表查询允许的过滤字段
var FilterFields = []string{"genre", "author", "status", "publishedYear", "price"}

// SortFields 列表查询允许的排序字段
var SortFields = []string{"title", "author", "genre", "publishedYear", "price", "stock", "createdAt", "updatedAt"}

// 控制参数：由分页/排序/检索机制消费，不参与过滤
const (
	paramPage   = "page"
	paramLimit  = "limit"
	paramSort   = "sort"
	paramSearch = "search"
)

var bookIDRe = regexp.MustCompile(`^book-[0-9a-f]{12}$`)

// Service 图书查询服务
//
// 组合过滤/排序/检索/分页解析器，将原始请求参数翻译为对存储层的
// 单次计数 + 单次分页查询；所有写操作都是显式的读-改-写。
type Service struct {
	store  storage.BookStore
	cache  cache.StatsCache
	bounds query.Bounds
}

// NewService 创建图书服务
func NewService(store storage.BookStore, statsCache cache.StatsCache, bounds query.Bounds) *Service {
	if statsCache == nil {
		statsCache = cache.NewNoOpCache()
	}
	if bounds.DefaultLimit <= 0 {
		bounds = query.DefaultBounds()
	}
	return &Service{store: store, cache: statsCache, bounds: bounds}
}

// ListResult 列表查询结果：数据页 + 分页描述符 + 实际生效的过滤/排序
type ListResult struct {
	Books      []*model.Book
	Pagination query.Pagination
	Filter     query.Filter
	Sort       []query.SortField
	Search     query.Search
}

// DeleteReceipt 硬删除回执
type DeleteReceipt struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// ============================================================================
// 查询
// ============================================================================

// List 列表查询
//
// 分页/排序/检索控制参数与过滤字段分离；未显式给出 status 过滤时，
// 默认只返回 active 图书。
func (s *Service) List(ctx context.Context, params url.Values) (*ListResult, error) {
	filter := query.ParseFilters(flatten(params), FilterFields)
	if !filter.Has("status") {
		filter = append(filter, query.Eq("status", string(model.BookStatusActive)))
	}
	return s.list(ctx, params, filter, query.NewSearch(params.Get(paramSearch)))
}

// ListByGenre 按分类列表：分类精确匹配，只含 active
func (s *Service) ListByGenre(ctx context.Context, genre string, params url.Values) (*ListResult, error) {
	filter := query.Filter{
		query.Eq("status", string(model.BookStatusActive)),
		query.Eq("genre", genre),
	}
	return s.list(ctx, params, filter, query.NewSearch(""))
}

// ListByAuthor 按作者列表：作者大小写不敏感子串匹配，只含 active
func (s *Service) ListByAuthor(ctx context.Context, author string, params url.Values) (*ListResult, error) {
	filter := query.Filter{
		query.Eq("status", string(model.BookStatusActive)),
		query.Contains("author", author),
	}
	return s.list(ctx, params, filter, query.NewSearch(""))
}

// list 共用的计数 + 分页 + 取页流程
func (s *Service) list(ctx context.Context, params url.Values, filter query.Filter, search query.Search) (*ListResult, error) {
	sortFields := query.ParseSort(params.Get(paramSort), SortFields)

	total, err := s.store.CountBooks(ctx, storage.BookQuery{Filter: filter, Search: search})
	if err != nil {
		return nil, err
	}

	p := query.NewPagination(params.Get(paramPage), params.Get(paramLimit), total, s.bounds)

	books, err := s.store.ListBooks(ctx, storage.BookQuery{
		Filter: filter,
		Search: search,
		Sort:   sortFields,
		Skip:   p.Skip,
		Limit:  p.ItemsPerPage,
	})
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Books:      books,
		Pagination: p,
		Filter:     filter,
		Sort:       sortFields,
		Search:     search,
	}, nil
}

// Count 与 List 相同的过滤语义，只返回匹配总数
func (s *Service) Count(ctx context.Context, params url.Values) (int64, error) {
	filter := query.ParseFilters(flatten(params), FilterFields)
	if !filter.Has("status") {
		filter = append(filter, query.Eq("status", string(model.BookStatusActive)))
	}
	return s.store.CountBooks(ctx, storage.BookQuery{
		Filter: filter,
		Search: query.NewSearch(params.Get(paramSearch)),
	})
}

// GetByID 按 ID 取单条
//
// 标识符形状检查先于查库：格式非法报 ErrInvalidID 而非 ErrNotFound。
func (s *Service) GetByID(ctx context.Context, id string) (*model.Book, error) {
	if !bookIDRe.MatchString(id) {
		return nil, storage.ErrInvalidID
	}
	b, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, storage.ErrNotFound
	}
	return b, nil
}

// GetByISBN 按 ISBN 取单条，查找前先规范化
func (s *Service) GetByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	b, err := s.store.GetBookByISBN(ctx, model.NormalizeISBN(isbn))
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, storage.ErrNotFound
	}
	return b, nil
}

// Stats 聚合统计，短 TTL 缓存
func (s *Service) Stats(ctx context.Context) (*model.BookStats, error) {
	if cached, err := s.cache.GetStats(ctx); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		log.Printf("[book] stats cache read failed: %v", err)
	}

	stats, err := s.store.BookStats(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetStats(ctx, stats); err != nil {
		log.Printf("[book] stats cache write failed: %v", err)
	}
	return stats, nil
}

// ============================================================================
// 写操作
// ============================================================================

// CreateInput 创建图书的输入
type CreateInput struct {
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Genre         string   `json:"genre"`
	PublishedYear int      `json:"publishedYear"`
	ISBN          string   `json:"isbn"`
	Description   string   `json:"description"`
	Price         *float64 `json:"price"`
	Stock         *int     `json:"stock"`
	Status        string   `json:"status"`
}

// Create 创建图书
//
// ISBN 规范化后预检唯一性（含 inactive/discontinued 记录）；
// 预检只是尽力而为，真正的竞态由存储层唯一索引兜底，
// 重复键信号同样映射为 ErrDuplicate。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Book, error) {
	now := time.Now().UTC()
	b := &model.Book{
		ID:            generateID(),
		Title:         in.Title,
		Author:        in.Author,
		Genre:         model.Genre(in.Genre),
		PublishedYear: in.PublishedYear,
		ISBN:          model.NormalizeISBN(in.ISBN),
		Description:   in.Description,
		Status:        model.BookStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.Price != nil {
		b.Price = *in.Price
	}
	if in.Stock != nil {
		b.Stock = *in.Stock
	}
	if in.Status != "" {
		b.Status = model.BookStatus(in.Status)
	}

	if err := validate.Struct(b); err != nil {
		return nil, err
	}

	existing, err := s.store.GetBookByISBN(ctx, b.ISBN)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, storage.ErrDuplicate
	}

	if err := s.store.CreateBook(ctx, b); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	return b, nil
}

// UpdateInput 更新图书的输入；nil 字段保持原值（PUT 与 PATCH 语义一致）
type UpdateInput struct {
	Title         *string  `json:"title"`
	Author        *string  `json:"author"`
	Genre         *string  `json:"genre"`
	PublishedYear *int     `json:"publishedYear"`
	ISBN          *string  `json:"isbn"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price"`
	Stock         *int     `json:"stock"`
	Status        *string  `json:"status"`
}

// Update 全量/部分更新，合并后整体重新校验
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*model.Book, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		b.Title = *in.Title
	}
	if in.Author != nil {
		b.Author = *in.Author
	}
	if in.Genre != nil {
		b.Genre = model.Genre(*in.Genre)
	}
	if in.PublishedYear != nil {
		b.PublishedYear = *in.PublishedYear
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if in.Price != nil {
		b.Price = *in.Price
	}
	if in.Stock != nil {
		b.Stock = *in.Stock
	}
	if in.Status != nil {
		b.Status = model.BookStatus(*in.Status)
	}

	// ISBN 变更需要排除自身的唯一性预检
	if in.ISBN != nil {
		b.ISBN = model.NormalizeISBN(*in.ISBN)
		existing, err := s.store.GetBookByISBN(ctx, b.ISBN)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != b.ID {
			return nil, storage.ErrDuplicate
		}
	}

	if err := validate.Struct(b); err != nil {
		return nil, err
	}

	b.UpdatedAt = time.Now().UTC()
	if err := s.store.ReplaceBook(ctx, b); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	return b, nil
}

// SoftDelete 软删除：status → discontinued，其余字段不动
func (s *Service) SoftDelete(ctx context.Context, id string) (*model.Book, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	b.Status = model.BookStatusDiscontinued
	b.UpdatedAt = time.Now().UTC()
	if err := s.store.ReplaceBook(ctx, b); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	return b, nil
}

// HardDelete 永久删除，返回被删记录的回执
func (s *Service) HardDelete(ctx context.Context, id string) (*DeleteReceipt, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteBook(ctx, id); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	return &DeleteReceipt{ID: b.ID, Title: b.Title, Author: b.Author}, nil
}

// UpdateStock 库存增量调整
//
// 显式读-改-写：新库存先算出来再落库，结果为负时整个操作被拒绝，
// 不做静默归零。
func (s *Service) UpdateStock(ctx context.Context, id string, delta int) (*model.Book, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newStock := b.Stock + delta
	if newStock < 0 {
		return nil, ErrStockNegative
	}

	b.Stock = newStock
	b.UpdatedAt = time.Now().UTC()
	if err := s.store.ReplaceBook(ctx, b); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	return b, nil
}

// ============================================================================
// 工具函数
// ============================================================================

// invalidateStats 写操作后尽力失效统计缓存
func (s *Service) invalidateStats(ctx context.Context) {
	if err := s.cache.InvalidateStats(ctx); err != nil {
		log.Printf("[book] stats cache invalidate failed: %v", err)
	}
}

// flatten 取每个参数的首个值
func flatten(params url.Values) map[string]string {
	m := make(map[string]string, len(params))
	for k, v := range params {
		if len(v) > 0 {
			m[k] = v[0]
		}
	}
	return m
}

// generateID 生成 book- 前缀的唯一标识符
func generateID() string {
	b := make([]byte, 6)
	rand.Read(b)
	return "book-" + hex.EncodeToString(b)
}
