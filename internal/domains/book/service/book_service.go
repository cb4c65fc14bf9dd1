package service

import (
	"context"
	"time"

	"library-backend/internal/domains/book/model"
	"library-backend/internal/domains/book/repository"
	"library-backend/internal/shared/pagination"
	"library-backend/pkg/cache"
	"library-backend/pkg/logger"

	"github.com/google/uuid"
)

type BookService struct {
	repo     repository.RepositoryInterface
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewService(repo repository.RepositoryInterface, cache cache.Cache, cacheTTL time.Duration) ServiceInterface {
	return &BookService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

func (s *BookService) CreateBook(ctx context.Context, req model.CreateBookRequest) (*model.Book, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	book := req.ToBook()
	if err := s.repo.Create(ctx, book); err != nil {
		return nil, err
	}

	logger.Info("book created", map[string]interface{}{
		"book_id": book.ID.String(),
		"stock":   book.Stock,
	})
	return book, nil
}

// GetBook - cache-aside. availableStock trong cache có thể trễ tối đa cacheTTL.
func (s *BookService) GetBook(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	key := model.BookDetailCacheKey(id)

	var cached model.Book
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("book cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	if found {
		return &cached, nil
	}

	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, book, s.cacheTTL); err != nil {
		logger.Warn("book cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return book, nil
}

func (s *BookService) ListBooks(ctx context.Context, q model.ListBooksQuery) (pagination.Result[model.Book], error) {
	if err := q.Validate(); err != nil {
		return pagination.Result[model.Book]{}, err
	}

	p := pagination.Normalize(q.Page, q.Limit)
	books, total, err := s.repo.List(ctx, model.BookFilter{
		Title:    q.Title,
		Author:   q.Author,
		Category: q.Category,
		Offset:   p.Offset,
		Limit:    p.Limit,
	})
	if err != nil {
		return pagination.Result[model.Book]{}, err
	}

	return pagination.NewResult(books, total, p), nil
}

func (s *BookService) UpdateBook(ctx context.Context, id uuid.UUID, req model.UpdateBookRequest) (*model.Book, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(book)
	if err := s.repo.Update(ctx, book); err != nil {
		return nil, err
	}

	s.evict(ctx, id)
	return book, nil
}

func (s *BookService) DeleteBook(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)

	logger.Info("book soft-deleted", map[string]interface{}{"book_id": id.String()})
	return nil
}

func (s *BookService) InvalidateBook(ctx context.Context, id uuid.UUID) error {
	return s.cache.Delete(ctx, model.BookDetailCacheKey(id))
}

func (s *BookService) evict(ctx context.Context, id uuid.UUID) {
	if err := s.InvalidateBook(ctx, id); err != nil {
		logger.Warn("book cache evict failed", map[string]interface{}{"book_id": id.String(), "error": err.Error()})
	}
}
