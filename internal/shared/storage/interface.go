// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/（生产）、memstore/（测试）
//   - 初始化时通过依赖注入传入实现
package storage

import (
	"context"

	"books-admin/internal/shared/model"
	"books-admin/internal/shared/query"
)

// BookQuery 列表/计数查询描述符
//
// Filter/Search/Sort 使用 query 包的后端无关表示，
// 字段名为 API 字段名（publishedYear 等），由驱动映射到存储字段。
type BookQuery struct {
	Filter query.Filter
	Search query.Search
	Sort   []query.SortField
	Skip   int
	Limit  int
}

// BookStore 图书存储接口
//
// Get 类方法在记录不存在时返回 (nil, nil)；
// Replace/Delete 在记录不存在时返回 ErrNotFound；
// Create/Replace 在唯一键冲突时返回 ErrDuplicate。
type BookStore interface {
	CreateBook(ctx context.Context, book *model.Book) error
	GetBook(ctx context.Context, id string) (*model.Book, error)
	GetBookByISBN(ctx context.Context, isbn string) (*model.Book, error)
	CountBooks(ctx context.Context, q BookQuery) (int64, error)
	ListBooks(ctx context.Context, q BookQuery) ([]*model.Book, error)
	ReplaceBook(ctx context.Context, book *model.Book) error
	DeleteBook(ctx context.Context, id string) error
	BookStats(ctx context.Context) (*model.BookStats, error)
}

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ReplaceUser(ctx context.Context, user *model.User) error
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	TouchLastLogin(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// Store 持久化存储组合接口
type Store interface {
	BookStore
	UserStore
	Ping(ctx context.Context) error
	Close() error
}
