package mongostore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"books-admin/internal/shared/model"
	"books-admin/internal/shared/query"
	"books-admin/internal/shared/storage"
)

// testStore 创建测试用 Store，使用独立数据库避免污染
func testStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	dbName := "books_admin_test"
	s, err := NewStore(uri, dbName)
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}

	// 清空测试数据库
	ctx := context.Background()
	if err := s.db.Drop(ctx); err != nil {
		t.Fatalf("Failed to drop test database: %v", err)
	}
	// 重新创建索引
	if err := s.ensureIndexes(ctx); err != nil {
		t.Fatalf("Failed to create indexes: %v", err)
	}

	t.Cleanup(func() {
		s.db.Drop(context.Background())
		s.Close()
	})

	return s
}

func seedBook(id, title, author, genre, isbn string, year int, price float64, stock int, status model.BookStatus) *model.Book {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.Book{
		ID: id, Title: title, Author: author, Genre: model.Genre(genre),
		PublishedYear: year, ISBN: isbn, Price: price, Stock: stock,
		Status: status, CreatedAt: now, UpdatedAt: now,
	}
}

func TestBookCRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	book := seedBook("book-000000000001", "The Great Gatsby", "F. Scott Fitzgerald",
		"Fiction", "9780743273565", 1925, 12.5, 3, model.BookStatusActive)

	// Create
	require.NoError(t, s.CreateBook(ctx, book))

	// Get
	got, err := s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "The Great Gatsby", got.Title)

	// 不存在返回 (nil, nil)
	got, err = s.GetBook(ctx, "book-ffffffffffff")
	require.NoError(t, err)
	assert.Nil(t, got)

	// ISBN 唯一索引：重复插入报 ErrDuplicate
	dup := seedBook("book-000000000002", "Gatsby Again", "Someone Else",
		"Fiction", "9780743273565", 2000, 9.9, 1, model.BookStatusActive)
	err = s.CreateBook(ctx, dup)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrDuplicate))

	// ISBN 查找
	got, err = s.GetBookByISBN(ctx, "9780743273565")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, book.ID, got.ID)

	// Replace
	got.Stock = 7
	require.NoError(t, s.ReplaceBook(ctx, got))
	got, err = s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)

	// Replace 不存在的记录
	missing := seedBook("book-ffffffffffff", "X", "Y", "Other", "9791234567896", 2001, 1, 1, model.BookStatusActive)
	err = s.ReplaceBook(ctx, missing)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	// Delete
	require.NoError(t, s.DeleteBook(ctx, book.ID))
	got, err = s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.Is(s.DeleteBook(ctx, book.ID), storage.ErrNotFound))
}

func TestListBooks_FilterSearchSort(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	books := []*model.Book{
		seedBook("book-000000000001", "Dune", "Frank Herbert", "Science-Fiction", "9780441013593", 1965, 9.99, 5, model.BookStatusActive),
		seedBook("book-000000000002", "Dune Messiah", "Frank Herbert", "Science-Fiction", "9780441172696", 1969, 8.99, 2, model.BookStatusActive),
		seedBook("book-000000000003", "Emma", "Jane Austen", "Romance", "9780141439587", 1815, 7.5, 4, model.BookStatusActive),
		seedBook("book-000000000004", "Old Dune", "Frank Herbert", "Science-Fiction", "9780441172702", 1965, 3.0, 0, model.BookStatusDiscontinued),
	}
	for _, b := range books {
		require.NoError(t, s.CreateBook(ctx, b))
	}

	// 状态过滤 + 分页
	q := storage.BookQuery{
		Filter: query.Filter{query.Eq("status", "active")},
		Sort:   []query.SortField{{Field: "publishedYear"}},
		Limit:  10,
	}
	got, err := s.ListBooks(ctx, q)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Emma", got[0].Title) // 1815 在最前

	count, err := s.CountBooks(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// 检索：大小写不敏感子串，OR 跨字段
	q = storage.BookQuery{Search: query.NewSearch("dune"), Limit: 10}
	got, err = s.ListBooks(ctx, q)
	require.NoError(t, err)
	assert.Len(t, got, 3) // 含 discontinued 的 Old Dune

	// 检索词正则转义：特殊字符不炸也不乱匹配
	q = storage.BookQuery{Search: query.NewSearch("du.e"), Limit: 10}
	got, err = s.ListBooks(ctx, q)
	require.NoError(t, err)
	assert.Len(t, got, 0)

	// 区间过滤
	gte := 1900.0
	q = storage.BookQuery{
		Filter: query.Filter{{Field: "publishedYear", GTE: &gte}},
		Limit:  10,
	}
	count, err = s.CountBooks(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// Contains 条件（作者子串）
	q = storage.BookQuery{
		Filter: query.Filter{query.Eq("status", "active"), query.Contains("author", "herbert")},
		Limit:  10,
	}
	count, err = s.CountBooks(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Skip/Limit 翻页
	q = storage.BookQuery{
		Filter: query.Filter{query.Eq("status", "active")},
		Sort:   []query.SortField{{Field: "title"}},
		Skip:   1,
		Limit:  1,
	}
	got, err = s.ListBooks(ctx, q)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Dune Messiah", got[0].Title)
}

func TestBookStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBook(ctx, seedBook("book-000000000001", "A", "X", "Fiction", "9780000000011", 2020, 10, 2, model.BookStatusActive)))
	require.NoError(t, s.CreateBook(ctx, seedBook("book-000000000002", "B", "X", "Fiction", "9780000000028", 2021, 20, 1, model.BookStatusActive)))
	require.NoError(t, s.CreateBook(ctx, seedBook("book-000000000003", "C", "Y", "Romance", "9780000000035", 2021, 30, 5, model.BookStatusDiscontinued)))

	stats, err := s.BookStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalBooks)
	assert.Equal(t, int64(2), stats.ActiveBooks)
	assert.Equal(t, 40.0, stats.TotalInventoryValue) // 10*2 + 20*1
	assert.Equal(t, 15.0, stats.AveragePrice)
	assert.Equal(t, int64(3), stats.TotalStock)

	require.Len(t, stats.GenreDistribution, 1)
	assert.Equal(t, model.Genre("Fiction"), stats.GenreDistribution[0].Genre)
	assert.Equal(t, int64(2), stats.GenreDistribution[0].Count)

	require.Len(t, stats.YearDistribution, 2)
	assert.Equal(t, 2021, stats.YearDistribution[0].Year) // 年份降序
}

func TestUserCRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	user := &model.User{
		ID: "usr-000000000001", Username: "reader1", Email: "reader@example.com",
		PasswordHash: "$2a$12$x", Role: model.UserRoleUser, IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateUser(ctx, user))

	// 唯一约束：email
	dup := &model.User{ID: "usr-000000000002", Username: "reader2", Email: "reader@example.com", PasswordHash: "x", Role: model.UserRoleUser, IsActive: true, CreatedAt: now, UpdatedAt: now}
	assert.True(t, errors.Is(s.CreateUser(ctx, dup), storage.ErrDuplicate))

	// 唯一约束：username
	dup = &model.User{ID: "usr-000000000003", Username: "reader1", Email: "other@example.com", PasswordHash: "x", Role: model.UserRoleUser, IsActive: true, CreatedAt: now, UpdatedAt: now}
	assert.True(t, errors.Is(s.CreateUser(ctx, dup), storage.ErrDuplicate))

	got, err := s.GetUserByEmail(ctx, "reader@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)

	got, err = s.GetUserByUsername(ctx, "reader1")
	require.NoError(t, err)
	require.NotNil(t, got)

	require.NoError(t, s.UpdateUserPassword(ctx, user.ID, "$2a$12$y"))
	require.NoError(t, s.TouchLastLogin(ctx, user.ID))

	got, err = s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$12$y", got.PasswordHash)
	assert.NotNil(t, got.LastLogin)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
