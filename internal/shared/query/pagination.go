// Package query 查询构造引擎
//
// 将原始请求参数（page/limit/sort/search/过滤字段）解析为与存储后端
// 无关的查询描述符，由各存储驱动负责翻译为具体查询。
// 所有解析器都不报错：非法输入回退到默认值或被丢弃。
package query

import (
	"math"
	"strconv"
)

// Bounds 分页边界配置
type Bounds struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultBounds 默认分页边界：每页 10 条，上限 100 条
func DefaultBounds() Bounds {
	return Bounds{DefaultLimit: 10, MaxLimit: 100}
}

// Pagination 分页描述符
//
// 由请求的 page/limit 与匹配总数计算得出，随响应一并返回。
type Pagination struct {
	CurrentPage     int   `json:"currentPage"`
	ItemsPerPage    int   `json:"itemsPerPage"`
	TotalItems      int64 `json:"totalItems"`
	TotalPages      int   `json:"totalPages"`
	Skip            int   `json:"-"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

// NewPagination 计算分页描述符
//
// page 非数字或 ≤0 回退到 1；limit 非数字回退到 DefaultLimit，
// 并收敛到 [1, MaxLimit]。totalItems 为 0 时 totalPages 为 0。
func NewPagination(pageStr, limitStr string, totalItems int64, b Bounds) Pagination {
	if b.DefaultLimit <= 0 {
		b = DefaultBounds()
	}

	page := 1
	if v, err := strconv.Atoi(pageStr); err == nil && v > 0 {
		page = v
	}

	limit := b.DefaultLimit
	if v, err := strconv.Atoi(limitStr); err == nil {
		limit = v
	}
	if limit < 1 {
		limit = b.DefaultLimit
	}
	if limit > b.MaxLimit {
		limit = b.MaxLimit
	}

	totalPages := 0
	if totalItems > 0 {
		totalPages = int((totalItems + int64(limit) - 1) / int64(limit))
	}

	// (page-1)*limit 在 page 极大时会溢出为负数；溢出时钳到 MaxInt，
	// 落到任何数据集末尾之后，等价于一个空页。
	skip := (page - 1) * limit
	if skip/limit != page-1 {
		skip = math.MaxInt
	}

	return Pagination{
		CurrentPage:     page,
		ItemsPerPage:    limit,
		TotalItems:      totalItems,
		TotalPages:      totalPages,
		Skip:            skip,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}
