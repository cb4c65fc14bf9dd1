package service

import (
	"context"
	"time"

	"library-backend/internal/domains/borrowing/model"
	"library-backend/internal/shared/auth"
	"library-backend/internal/shared/pagination"

	"github.com/google/uuid"
)

// ServiceInterface - borrowing coordinator
type ServiceInterface interface {
	// CreateBorrow reserve một bản và tạo BORROWED trong cùng transaction
	CreateBorrow(ctx context.Context, caller *auth.Identity, req model.CreateBorrowRequest) (*model.BorrowDetail, error)

	// UpdateBorrow áp patch status/returnDate theo state machine
	UpdateBorrow(ctx context.Context, id uuid.UUID, req model.UpdateBorrowRequest) (*model.BorrowDetail, error)

	// ReturnBorrow = UpdateBorrow(status=RETURNED), idempotent
	ReturnBorrow(ctx context.Context, id uuid.UUID, returnDate *time.Time) (*model.BorrowDetail, error)

	// RemoveBorrow soft-delete, không đụng tồn kho
	RemoveBorrow(ctx context.Context, id uuid.UUID) error

	GetBorrow(ctx context.Context, id uuid.UUID) (*model.BorrowDetail, error)
	ListBorrows(ctx context.Context, q model.ListBorrowsQuery) (pagination.Result[model.BorrowDetail], error)
	ListMyBorrows(ctx context.Context, caller *auth.Identity, q model.ListBorrowsQuery) (pagination.Result[model.BorrowDetail], error)
}

type SweeperInterface interface {
	RunSweepNow(ctx context.Context) (int64, error)
}

// AvailabilityNotifier được gọi sau commit; lỗi chỉ log, không ảnh hưởng kết quả
type AvailabilityNotifier interface {
	NotifyAvailabilityChanged(ctx context.Context, bookID uuid.UUID, reason string)
}
