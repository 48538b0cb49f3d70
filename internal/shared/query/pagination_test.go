package query

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNewPagination_PageFallback page 非法时回退到 1
func TestNewPagination_PageFallback(t *testing.T) {
	tests := []struct {
		name string
		page string
		want int
	}{
		{"空", "", 1},
		{"零", "0", 1},
		{"负数", "-3", 1},
		{"非数字", "abc", 1},
		{"小数", "1.5", 1},
		{"正常", "7", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, "10", 1000, DefaultBounds())
			assert.Equal(t, tt.want, p.CurrentPage)
		})
	}
}

// TestNewPagination_LimitClamp limit 收敛到 [1, 100]，非法回退到 10
func TestNewPagination_LimitClamp(t *testing.T) {
	tests := []struct {
		name  string
		limit string
		want  int
	}{
		{"空", "", 10},
		{"零", "0", 10},
		{"负数", "-5", 10},
		{"非数字", "ten", 10},
		{"超上限", "250", 100},
		{"恰好上限", "100", 100},
		{"正常", "25", 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination("1", tt.limit, 1000, DefaultBounds())
			assert.Equal(t, tt.want, p.ItemsPerPage)
		})
	}
}

// TestNewPagination_TotalPages totalPages = ceil(totalItems / itemsPerPage)
func TestNewPagination_TotalPages(t *testing.T) {
	tests := []struct {
		total int64
		limit string
		want  int
	}{
		{0, "10", 0},
		{1, "10", 1},
		{10, "10", 1},
		{11, "10", 2},
		{100, "10", 10},
		{101, "10", 11},
	}

	for _, tt := range tests {
		p := NewPagination("1", tt.limit, tt.total, DefaultBounds())
		assert.Equal(t, tt.want, p.TotalPages, "total=%d limit=%s", tt.total, tt.limit)
	}
}

// TestNewPagination_Flags hasNextPage 当且仅当 currentPage < totalPages
func TestNewPagination_Flags(t *testing.T) {
	p := NewPagination("1", "10", 25, DefaultBounds())
	assert.True(t, p.HasNextPage)
	assert.False(t, p.HasPreviousPage)
	assert.Equal(t, 0, p.Skip)

	p = NewPagination("2", "10", 25, DefaultBounds())
	assert.True(t, p.HasNextPage)
	assert.True(t, p.HasPreviousPage)
	assert.Equal(t, 10, p.Skip)

	p = NewPagination("3", "10", 25, DefaultBounds())
	assert.False(t, p.HasNextPage)
	assert.True(t, p.HasPreviousPage)

	// 超出末页
	p = NewPagination("9", "10", 25, DefaultBounds())
	assert.False(t, p.HasNextPage)
	assert.Equal(t, 80, p.Skip)

	// 空结果集
	p = NewPagination("1", "10", 0, DefaultBounds())
	assert.False(t, p.HasNextPage)
	assert.False(t, p.HasPreviousPage)
	assert.Equal(t, 0, p.TotalPages)
}

// TestNewPagination_SkipOverflow page 极大导致 (page-1)*limit 溢出时，
// skip 钳到 MaxInt 而不是变成负数，后续切片 / SetSkip 得到空页而非报错
func TestNewPagination_SkipOverflow(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"溢出为负", "922337203685477580"},
		{"溢出回绕为正", "184467440737095518"},
		{"MaxInt 本身", "9223372036854775807"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, "100", 5, DefaultBounds())
			assert.Equal(t, math.MaxInt, p.Skip)
			assert.False(t, p.HasNextPage)
		})
	}

	// 未溢出的大 page 保持精确值
	p := NewPagination("1000000", "100", 5, DefaultBounds())
	assert.Equal(t, 99999900, p.Skip)
}

// TestNewPagination_CustomBounds 配置化的分页边界
func TestNewPagination_CustomBounds(t *testing.T) {
	b := Bounds{DefaultLimit: 20, MaxLimit: 50}

	p := NewPagination("1", "", 100, b)
	assert.Equal(t, 20, p.ItemsPerPage)

	p = NewPagination("1", "99", 100, b)
	assert.Equal(t, 50, p.ItemsPerPage)

	// 零值 Bounds 回退到默认
	p = NewPagination("1", "", 100, Bounds{})
	assert.Equal(t, 10, p.ItemsPerPage)
}
