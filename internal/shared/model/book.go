// Package model 定义核心数据模型
//
// book.go 包含图书目录相关的数据模型定义：
//   - Book：图书记录
//   - BookStatus：图书状态枚举
//   - Genre：图书分类枚举
//   - BookStats：聚合统计结果
package model

import (
	"strings"
	"time"
)

// BookStatus 图书状态
type BookStatus string

const (
	// BookStatusActive 在售
	BookStatusActive BookStatus = "active"

	// BookStatusInactive 暂不可售
	BookStatusInactive BookStatus = "inactive"

	// BookStatusDiscontinued 已下架（软删除）
	BookStatusDiscontinued BookStatus = "discontinued"
)

// ValidBookStatus 判断状态是否合法
func ValidBookStatus(s string) bool {
	switch BookStatus(s) {
	case BookStatusActive, BookStatusInactive, BookStatusDiscontinued:
		return true
	}
	return false
}

// Genre 图书分类
type Genre string

// Genres 所有合法的图书分类
var Genres = []Genre{
	"Fiction",
	"Non-Fiction",
	"Mystery",
	"Thriller",
	"Romance",
	"Science-Fiction",
	"Fantasy",
	"Horror",
	"Biography",
	"Autobiography",
	"History",
	"Philosophy",
	"Psychology",
	"Self-Help",
	"Business",
	"Economics",
	"Science",
	"Technology",
	"Other",
}

// ValidGenre 判断分类是否合法
func ValidGenre(g string) bool {
	for _, v := range Genres {
		if string(v) == g {
			return true
		}
	}
	return false
}

// Book 图书记录
//
// ISBN 入库前统一规范化（去除连字符和空格），并在存储层以唯一索引约束，
// 软删除（discontinued）的记录同样占用 ISBN。
type Book struct {
	ID            string     `json:"id" bson:"_id"`
	Title         string     `json:"title" bson:"title" validate:"required,min=1,max=200"`
	Author        string     `json:"author" bson:"author" validate:"required,min=1,max=100"`
	Genre         Genre      `json:"genre" bson:"genre" validate:"required,genre"`
	PublishedYear int        `json:"publishedYear" bson:"published_year" validate:"required,min=1000,pubyear"`
	ISBN          string     `json:"isbn" bson:"isbn" validate:"required,isbn"`
	Description   string     `json:"description,omitempty" bson:"description,omitempty" validate:"max=2000"`
	Price         float64    `json:"price" bson:"price" validate:"min=0"`
	Stock         int        `json:"stock" bson:"stock" validate:"min=0"`
	Status        BookStatus `json:"status" bson:"status" validate:"required,bookstatus"`
	CreatedAt     time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" bson:"updated_at"`
}

// NormalizeISBN 规范化 ISBN：去除连字符和空格
func NormalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	return strings.ReplaceAll(isbn, " ", "")
}

// ============================================================================
// BookStats - 聚合统计
// ============================================================================

// GenreCount 单个分类的图书数量
type GenreCount struct {
	Genre Genre `json:"genre" bson:"_id"`
	Count int64 `json:"count" bson:"count"`
}

// YearCount 单个出版年份的图书数量
type YearCount struct {
	Year  int   `json:"year" bson:"_id"`
	Count int64 `json:"count" bson:"count"`
}

// BookStats 图书聚合统计结果
//
// 金额/库存类指标只统计 active 图书；分类分布按数量降序，
// 年份分布取最近十个年份、按年份降序。
type BookStats struct {
	TotalBooks          int64        `json:"totalBooks"`
	ActiveBooks         int64        `json:"activeBooks"`
	TotalInventoryValue float64      `json:"totalInventoryValue"`
	AveragePrice        float64      `json:"averagePrice"`
	TotalStock          int64        `json:"totalStock"`
	GenreDistribution   []GenreCount `json:"genreDistribution"`
	YearDistribution    []YearCount  `json:"yearDistribution"`
}
