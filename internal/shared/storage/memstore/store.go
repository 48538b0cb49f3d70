// Package memstore 实现基于内存的 storage.Store
//
// 用于单元测试：与 mongostore 行为对齐（唯一约束、过滤/排序/分页语义），
// 但所有数据保存在进程内的 map 中。
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"books-admin/internal/shared/model"
	"books-admin/internal/shared/query"
	"books-admin/internal/shared/storage"
)

// Store 内存存储
type Store struct {
	mu    sync.RWMutex
	books map[string]*model.Book
	users map[string]*model.User
}

var _ storage.Store = (*Store)(nil)

// NewStore 创建内存存储实例
func NewStore() *Store {
	return &Store{
		books: map[string]*model.Book{},
		users: map[string]*model.User{},
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// ============================================================================
// BookStore
// ============================================================================

func (s *Store) CreateBook(ctx context.Context, book *model.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[book.ID]; ok {
		return storage.ErrDuplicate
	}
	for _, b := range s.books {
		if b.ISBN == book.ISBN {
			return storage.ErrDuplicate
		}
	}
	cp := *book
	s.books[book.ID] = &cp
	return nil
}

func (s *Store) GetBook(ctx context.Context, id string) (*model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *Store) GetBookByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.books {
		if b.ISBN == isbn {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) CountBooks(ctx context.Context, q storage.BookQuery) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, b := range s.books {
		if matches(b, q) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListBooks(ctx context.Context, q storage.BookQuery) ([]*model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []*model.Book{}
	for _, b := range s.books {
		if matches(b, q) {
			cp := *b
			matched = append(matched, &cp)
		}
	}

	sortBooks(matched, q.Sort)

	// Skip/Limit
	if q.Skip >= len(matched) {
		return []*model.Book{}, nil
	}
	matched = matched[q.Skip:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (s *Store) ReplaceBook(ctx context.Context, book *model.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[book.ID]; !ok {
		return storage.ErrNotFound
	}
	for id, b := range s.books {
		if id != book.ID && b.ISBN == book.ISBN {
			return storage.ErrDuplicate
		}
	}
	cp := *book
	s.books[book.ID] = &cp
	return nil
}

func (s *Store) DeleteBook(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.books, id)
	return nil
}

// ============================================================================
// 查询语义（与 mongostore 对齐）
// ============================================================================

func matches(b *model.Book, q storage.BookQuery) bool {
	for _, c := range q.Filter {
		if !matchCondition(b, c) {
			return false
		}
	}
	if !q.Search.Empty() {
		if !matchSearch(b, q.Search) {
			return false
		}
	}
	return true
}

func matchCondition(b *model.Book, c query.Condition) bool {
	switch {
	case c.Contains != "":
		return strings.Contains(strings.ToLower(stringField(b, c.Field)), strings.ToLower(c.Contains))
	case c.EqNum != nil:
		return numField(b, c.Field) == *c.EqNum
	case c.GTE != nil || c.LTE != nil:
		v := numField(b, c.Field)
		if c.GTE != nil && v < *c.GTE {
			return false
		}
		if c.LTE != nil && v > *c.LTE {
			return false
		}
		return true
	default:
		return stringField(b, c.Field) == c.Eq
	}
}

func matchSearch(b *model.Book, s query.Search) bool {
	term := strings.ToLower(s.Term)
	for _, f := range s.Fields {
		if strings.Contains(strings.ToLower(stringField(b, f)), term) {
			return true
		}
	}
	return false
}

func stringField(b *model.Book, field string) string {
	switch field {
	case "title":
		return b.Title
	case "author":
		return b.Author
	case "genre":
		return string(b.Genre)
	case "isbn":
		return b.ISBN
	case "description":
		return b.Description
	case "status":
		return string(b.Status)
	case "id":
		return b.ID
	default:
		return ""
	}
}

func numField(b *model.Book, field string) float64 {
	switch field {
	case "publishedYear":
		return float64(b.PublishedYear)
	case "price":
		return b.Price
	case "stock":
		return float64(b.Stock)
	default:
		return 0
	}
}

func sortBooks(books []*model.Book, keys []query.SortField) {
	if len(keys) == 0 {
		keys = query.DefaultSort()
	}
	sort.SliceStable(books, func(i, j int) bool {
		for _, k := range keys {
			cmp := compareField(books[i], books[j], k.Field)
			if cmp == 0 {
				continue
			}
			if k.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareField(a, b *model.Book, field string) int {
	switch field {
	case "publishedYear", "price", "stock":
		av, bv := numField(a, field), numField(b, field)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return strings.Compare(stringField(a, field), stringField(b, field))
	}
}
