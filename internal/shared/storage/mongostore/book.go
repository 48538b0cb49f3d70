package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"books-admin/internal/shared/model"
	"books-admin/internal/shared/storage"
)

// ============================================================================
// BookStore
// ============================================================================

func (s *Store) CreateBook(ctx context.Context, book *model.Book) error {
	return insertOne(ctx, s.col(ColBooks), book)
}

func (s *Store) GetBook(ctx context.Context, id string) (*model.Book, error) {
	return findOne[model.Book](ctx, s.col(ColBooks), bson.D{{Key: "_id", Value: id}})
}

// GetBookByISBN 按规范化 ISBN 查找；调用方负责先行规范化
func (s *Store) GetBookByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	return findOne[model.Book](ctx, s.col(ColBooks), bson.D{{Key: "isbn", Value: isbn}})
}

func (s *Store) CountBooks(ctx context.Context, q storage.BookQuery) (int64, error) {
	count, err := s.col(ColBooks).CountDocuments(ctx, buildFilter(q))
	if err != nil {
		return 0, wrapError(err)
	}
	return count, nil
}

func (s *Store) ListBooks(ctx context.Context, q storage.BookQuery) ([]*model.Book, error) {
	return findMany[model.Book](ctx, s.col(ColBooks), buildFilter(q), findOptions(q))
}

func (s *Store) ReplaceBook(ctx context.Context, book *model.Book) error {
	return replaceByID(ctx, s.col(ColBooks), book.ID, book)
}

func (s *Store) DeleteBook(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColBooks), id)
}
