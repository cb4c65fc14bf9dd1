package repository

import (
	"context"
	"time"

	"library-backend/internal/domains/borrowing/model"
	"library-backend/pkg/database"

	"github.com/google/uuid"
)

// RepositoryInterface - borrow_transactions store
type RepositoryInterface interface {
	// HasActiveLoan: còn bản ghi BORROWED/OVERDUE chưa xóa cho (user, book)
	HasActiveLoan(ctx context.Context, userID, bookID uuid.UUID) (bool, error)

	// Create: status=BORROWED, borrow_date=now. ErrActiveLoanExists khi vi phạm ux_active_loan.
	Create(ctx context.Context, params model.CreateParams) (*model.BorrowTransaction, error)

	// GetForUpdate khóa row; bản ghi đã xóa coi như không tồn tại
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.BorrowTransaction, error)

	// TransitionToReturned idempotent: đã RETURNED thì changed=false,
	// trừ khi returnDate được truyền để sửa ngày trả.
	TransitionToReturned(ctx context.Context, id uuid.UUID, returnDate *time.Time) (*model.BorrowTransaction, bool, error)

	// MarkOverdue chuyển một bản ghi BORROWED sang OVERDUE (PATCH thủ công)
	MarkOverdue(ctx context.Context, id uuid.UUID) (*model.BorrowTransaction, error)

	// SweepOverdue: BORROWED có due_date < asOf -> OVERDUE, trả số row đổi
	SweepOverdue(ctx context.Context, asOf time.Time) (int64, error)

	SoftDelete(ctx context.Context, id uuid.UUID) (*model.BorrowTransaction, error)

	GetDetail(ctx context.Context, id uuid.UUID) (*model.BorrowDetail, error)
	List(ctx context.Context, filter model.ListFilter) ([]model.BorrowDetail, int, error)

	WithTx(db database.DBTX) RepositoryInterface
}
