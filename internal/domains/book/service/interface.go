package service

import (
	"context"

	"library-backend/internal/domains/book/model"
	"library-backend/internal/shared/pagination"

	"github.com/google/uuid"
)

// ServiceInterface - catalog business logic
type ServiceInterface interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest) (*model.Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*model.Book, error)
	ListBooks(ctx context.Context, q model.ListBooksQuery) (pagination.Result[model.Book], error)
	UpdateBook(ctx context.Context, id uuid.UUID, req model.UpdateBookRequest) (*model.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
	// InvalidateBook drops cached reads after availability changes.
	InvalidateBook(ctx context.Context, id uuid.UUID) error
}
