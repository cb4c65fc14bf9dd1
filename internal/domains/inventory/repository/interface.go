package repository

import (
	"context"

	"library-backend/internal/domains/inventory/model"
	"library-backend/pkg/database"

	"github.com/google/uuid"
)

// LedgerInterface điều chỉnh available_stock của books.
// Reserve/Release phải chạy trong transaction của caller (WithTx) để
// thay đổi tồn commit cùng lúc với bản ghi mượn.
type LedgerInterface interface {
	// Reserve giảm availableStock đi 1.
	// Trả ErrBookNotFound, ErrBookDeleted hoặc ErrOutOfStock, không đổi gì khi lỗi.
	Reserve(ctx context.Context, bookID uuid.UUID, ref uuid.UUID) (*model.Movement, error)

	// Release tăng availableStock lên 1; ErrStockInvariant nếu vượt stock.
	Release(ctx context.Context, bookID uuid.UUID, ref uuid.UUID) (*model.Movement, error)

	Snapshot(ctx context.Context, bookID uuid.UUID) (*model.Availability, error)
	ListMovements(ctx context.Context, bookID uuid.UUID, limit, offset int) ([]model.Movement, int, error)

	WithTx(db database.DBTX) LedgerInterface
}
