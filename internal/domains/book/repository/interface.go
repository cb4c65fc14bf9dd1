package repository

import (
	"context"

	"library-backend/internal/domains/book/model"
	"library-backend/pkg/database"

	"github.com/google/uuid"
)

// RepositoryInterface - data access cho books
type RepositoryInterface interface {
	Create(ctx context.Context, book *model.Book) error
	// GetByID bỏ qua sách đã soft-delete
	GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	// GetForUpdate khóa row (SELECT ... FOR UPDATE), trả cả sách đã soft-delete.
	// Chỉ có nghĩa khi repository được bind vào transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Book, error)
	List(ctx context.Context, filter model.BookFilter) ([]model.Book, int, error)
	Update(ctx context.Context, book *model.Book) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	WithTx(db database.DBTX) RepositoryInterface
}
