package book

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"books-admin/internal/shared/model"
	"books-admin/internal/shared/query"
	"books-admin/internal/shared/storage"
	"books-admin/internal/shared/storage/memstore"
	"books-admin/internal/shared/validate"
)

func newTestService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	store := memstore.NewStore()
	return NewService(store, nil, query.DefaultBounds()), store
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

func seedBook(t *testing.T, svc *Service, title, author, genre, isbn string, year int, price float64, stock int) *model.Book {
	t.Helper()
	b, err := svc.Create(context.Background(), CreateInput{
		Title:         title,
		Author:        author,
		Genre:         genre,
		PublishedYear: year,
		ISBN:          isbn,
		Price:         floatPtr(price),
		Stock:         intPtr(stock),
	})
	require.NoError(t, err)
	return b
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("正常创建并应用默认值", func(t *testing.T) {
		b, err := svc.Create(ctx, CreateInput{
			Title:         "The Go Programming Language",
			Author:        "Alan Donovan",
			Genre:         "Technology",
			PublishedYear: 2015,
			ISBN:          "978-0-13-419044-0",
		})
		require.NoError(t, err)
		assert.Regexp(t, `^book-[0-9a-f]{12}$`, b.ID)
		assert.Equal(t, "9780134190440", b.ISBN)
		assert.Equal(t, model.BookStatusActive, b.Status)
		assert.Zero(t, b.Price)
		assert.Zero(t, b.Stock)
		assert.False(t, b.CreatedAt.IsZero())
	})

	t.Run("校验失败", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateInput{
			Title:         "",
			Author:        "Nobody",
			Genre:         "Technology",
			PublishedYear: 2015,
			ISBN:          "9780134190441",
		})
		var verrs validate.Errors
		require.ErrorAs(t, err, &verrs)
	})

	t.Run("重复 ISBN 冲突", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateInput{
			Title:         "Duplicate",
			Author:        "Someone",
			Genre:         "Technology",
			PublishedYear: 2020,
			ISBN:          "9780134190440",
		})
		assert.ErrorIs(t, err, storage.ErrDuplicate)
	})

	t.Run("软删除记录仍然占用 ISBN", func(t *testing.T) {
		b := seedBook(t, svc, "Gone", "Ghost", "Horror", "9781111111111", 2001, 9.99, 1)
		_, err := svc.SoftDelete(ctx, b.ID)
		require.NoError(t, err)

		_, err = svc.Create(ctx, CreateInput{
			Title:         "Reborn",
			Author:        "Ghost",
			Genre:         "Horror",
			PublishedYear: 2002,
			ISBN:          "978-1-111111111",
		})
		assert.ErrorIs(t, err, storage.ErrDuplicate)
	})
}

func TestGetByID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	b := seedBook(t, svc, "Dune", "Frank Herbert", "Science-Fiction", "9780441013593", 1965, 19.99, 5)

	t.Run("命中", func(t *testing.T) {
		got, err := svc.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dune", got.Title)
	})

	t.Run("格式非法先于查库", func(t *testing.T) {
		_, err := svc.GetByID(ctx, "not-a-book-id")
		assert.ErrorIs(t, err, storage.ErrInvalidID)
	})

	t.Run("格式合法但不存在", func(t *testing.T) {
		_, err := svc.GetByID(ctx, "book-000000000000")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestGetByISBN(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedBook(t, svc, "Dune", "Frank Herbert", "Science-Fiction", "9780441013593", 1965, 19.99, 5)

	t.Run("带连字符的输入先规范化", func(t *testing.T) {
		got, err := svc.GetByISBN(ctx, "978-0-441-01359-3")
		require.NoError(t, err)
		assert.Equal(t, "Dune", got.Title)
	})

	t.Run("未知 ISBN", func(t *testing.T) {
		_, err := svc.GetByISBN(ctx, "9999999999999")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	seedBook(t, svc, "Dune", "Frank Herbert", "Science-Fiction", "9780441013593", 1965, 19.99, 5)
	seedBook(t, svc, "Dune Messiah", "Frank Herbert", "Science-Fiction", "9780441013594", 1969, 15.99, 3)
	seedBook(t, svc, "Clean Code", "Robert Martin", "Technology", "9780132350884", 2008, 39.99, 10)
	retired := seedBook(t, svc, "Old Manual", "Anon", "Technology", "9780000000002", 1990, 5.00, 0)
	_, err := svc.SoftDelete(ctx, retired.ID)
	require.NoError(t, err)

	t.Run("默认只含 active", func(t *testing.T) {
		result, err := svc.List(ctx, url.Values{})
		require.NoError(t, err)
		assert.Len(t, result.Books, 3)
		assert.EqualValues(t, 3, result.Pagination.TotalItems)
	})

	t.Run("显式 status 过滤覆盖默认", func(t *testing.T) {
		result, err := svc.List(ctx, url.Values{"status": {"discontinued"}})
		require.NoError(t, err)
		require.Len(t, result.Books, 1)
		assert.Equal(t, "Old Manual", result.Books[0].Title)
	})

	t.Run("genre 过滤与排序", func(t *testing.T) {
		result, err := svc.List(ctx, url.Values{
			"genre": {"Science-Fiction"},
			"sort":  {"-publishedYear"},
		})
		require.NoError(t, err)
		require.Len(t, result.Books, 2)
		assert.Equal(t, "Dune Messiah", result.Books[0].Title)
	})

	t.Run("范围过滤", func(t *testing.T) {
		result, err := svc.List(ctx, url.Values{
			"price_gte": {"16"},
		})
		require.NoError(t, err)
		require.Len(t, result.Books, 2)
	})

	t.Run("检索", func(t *testing.T) {
		result, err := svc.List(ctx, url.Values{"search": {"dune"}})
		require.NoError(t, err)
		assert.Len(t, result.Books, 2)
	})

	t.Run("分页越界返回空页", func(t *testing.T) {
		result, err := svc.List(ctx, url.Values{"page": {"99"}})
		require.NoError(t, err)
		assert.Empty(t, result.Books)
		assert.EqualValues(t, 3, result.Pagination.TotalItems)
		assert.False(t, result.Pagination.HasNextPage)
	})

	t.Run("page 大到 skip 溢出仍返回空页", func(t *testing.T) {
		result, err := svc.List(ctx, url.Values{
			"page": {"922337203685477580"}, "limit": {"100"},
		})
		require.NoError(t, err)
		assert.Empty(t, result.Books)
		assert.GreaterOrEqual(t, result.Pagination.Skip, 0)
	})
}

func TestListByGenreAndAuthor(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	seedBook(t, svc, "Dune", "Frank Herbert", "Science-Fiction", "9780441013593", 1965, 19.99, 5)
	inactive := seedBook(t, svc, "Dune Messiah", "Frank Herbert", "Science-Fiction", "9780441013594", 1969, 15.99, 3)
	_, err := svc.SoftDelete(ctx, inactive.ID)
	require.NoError(t, err)

	t.Run("按分类只返回 active", func(t *testing.T) {
		result, err := svc.ListByGenre(ctx, "Science-Fiction", url.Values{})
		require.NoError(t, err)
		require.Len(t, result.Books, 1)
		assert.Equal(t, "Dune", result.Books[0].Title)
	})

	t.Run("按作者大小写不敏感子串匹配", func(t *testing.T) {
		result, err := svc.ListByAuthor(ctx, "herbert", url.Values{})
		require.NoError(t, err)
		require.Len(t, result.Books, 1)
	})

	t.Run("作者无匹配", func(t *testing.T) {
		result, err := svc.ListByAuthor(ctx, "tolkien", url.Values{})
		require.NoError(t, err)
		assert.Empty(t, result.Books)
	})
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	b := seedBook(t, svc, "Dune", "Frank Herbert", "Science-Fiction", "9780441013593", 1965, 19.99, 5)
	other := seedBook(t, svc, "Clean Code", "Robert Martin", "Technology", "9780132350884", 2008, 39.99, 10)

	t.Run("部分更新只动给出的字段", func(t *testing.T) {
		got, err := svc.Update(ctx, b.ID, UpdateInput{Price: floatPtr(24.99)})
		require.NoError(t, err)
		assert.Equal(t, 24.99, got.Price)
		assert.Equal(t, "Dune", got.Title)
		assert.Equal(t, 5, got.Stock)
	})

	t.Run("合并后重新校验", func(t *testing.T) {
		_, err := svc.Update(ctx, b.ID, UpdateInput{Genre: strPtr("NotAGenre")})
		var verrs validate.Errors
		require.ErrorAs(t, err, &verrs)
	})

	t.Run("改成他人的 ISBN 冲突", func(t *testing.T) {
		_, err := svc.Update(ctx, b.ID, UpdateInput{ISBN: strPtr(other.ISBN)})
		assert.ErrorIs(t, err, storage.ErrDuplicate)
	})

	t.Run("改成自己的 ISBN 不冲突", func(t *testing.T) {
		_, err := svc.Update(ctx, b.ID, UpdateInput{ISBN: strPtr("978-0-441-01359-3")})
		require.NoError(t, err)
	})

	t.Run("不存在的记录", func(t *testing.T) {
		_, err := svc.Update(ctx, "book-000000000000", UpdateInput{Price: floatPtr(1)})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestDelete(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	t.Run("软删除保留记录", func(t *testing.T) {
		b := seedBook(t, svc, "Fading", "Author", "Fiction", "9780000000011", 2000, 10, 1)
		got, err := svc.SoftDelete(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, model.BookStatusDiscontinued, got.Status)

		kept, err := store.GetBook(ctx, b.ID)
		require.NoError(t, err)
		require.NotNil(t, kept)
	})

	t.Run("硬删除返回回执且记录消失", func(t *testing.T) {
		b := seedBook(t, svc, "Vanishing", "Author", "Fiction", "9780000000012", 2000, 10, 1)
		receipt, err := svc.HardDelete(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b.ID, receipt.ID)
		assert.Equal(t, "Vanishing", receipt.Title)

		gone, err := store.GetBook(ctx, b.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})
}

func TestUpdateStock(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	b := seedBook(t, svc, "Stocked", "Author", "Business", "9780000000021", 2010, 10, 5)

	t.Run("增量调整", func(t *testing.T) {
		got, err := svc.UpdateStock(ctx, b.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 8, got.Stock)
	})

	t.Run("负向调整", func(t *testing.T) {
		got, err := svc.UpdateStock(ctx, b.ID, -8)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Stock)
	})

	t.Run("调整到负数被拒绝且不落库", func(t *testing.T) {
		_, err := svc.UpdateStock(ctx, b.ID, -1)
		assert.ErrorIs(t, err, ErrStockNegative)

		got, err := svc.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Stock)
	})
}

func TestCount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	seedBook(t, svc, "A", "X", "Fiction", "9780000000031", 2000, 10, 1)
	seedBook(t, svc, "B", "Y", "Fiction", "9780000000032", 2001, 10, 1)
	retired := seedBook(t, svc, "C", "Z", "Fiction", "9780000000033", 2002, 10, 1)
	_, err := svc.SoftDelete(ctx, retired.ID)
	require.NoError(t, err)

	total, err := svc.Count(ctx, url.Values{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	total, err = svc.Count(ctx, url.Values{"status": {"discontinued"}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestStats_UsesCache(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	seedBook(t, svc, "A", "X", "Fiction", "9780000000041", 2000, 10, 2)
	seedBook(t, svc, "B", "Y", "Technology", "9780000000042", 2001, 20, 1)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalBooks)
	assert.EqualValues(t, 2, stats.ActiveBooks)
	assert.InDelta(t, 40.0, stats.TotalInventoryValue, 0.001)
	assert.InDelta(t, 15.0, stats.AveragePrice, 0.001)
	assert.EqualValues(t, 3, stats.TotalStock)
}
