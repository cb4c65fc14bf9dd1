package service

import (
	"context"
	"errors"
	"time"

	"library-backend/internal/domains/borrowing/model"
	"library-backend/internal/domains/borrowing/repository"
	invmodel "library-backend/internal/domains/inventory/model"
	"library-backend/internal/infrastructure/metrics"
	"library-backend/internal/shared/auth"
	"library-backend/internal/shared/pagination"
	"library-backend/internal/shared/utils"
	"library-backend/pkg/logger"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

const (
	opCreate = "create"
	opUpdate = "update"
	opReturn = "return"
	opRemove = "remove"
)

type Config struct {
	MaxLoanDays int
	Location    *time.Location
}

type BorrowService struct {
	uow      UnitOfWork
	loans    repository.RepositoryInterface
	notifier AvailabilityNotifier
	metrics  *metrics.Metrics
	cfg      Config
	now      func() time.Time
}

// NewService - notifier và metrics có thể nil
func NewService(
	uow UnitOfWork,
	loans repository.RepositoryInterface,
	notifier AvailabilityNotifier,
	m *metrics.Metrics,
	cfg Config,
) *BorrowService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &BorrowService{
		uow:      uow,
		loans:    loans,
		notifier: notifier,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock thay nguồn thời gian (test)
func (s *BorrowService) WithClock(now func() time.Time) *BorrowService {
	s.now = now
	return s
}

// =====================================================
// CREATE
// =====================================================

func (s *BorrowService) CreateBorrow(ctx context.Context, caller *auth.Identity, req model.CreateBorrowRequest) (detail *model.BorrowDetail, err error) {
	defer func() { s.observe(opCreate, err) }()

	if caller == nil {
		return nil, model.NewBorrowError(model.ErrCodeUnauthenticated, "caller identity missing", model.ErrUnauthenticated)
	}
	if err := req.Validate(s.now(), s.cfg.MaxLoanDays, s.cfg.Location); err != nil {
		return nil, err
	}
	params := req.Params(caller.ID, s.cfg.Location)

	err = s.uow.Execute(ctx, func(ctx context.Context, tx TxRepositories) error {
		// Khóa row book: các borrow cùng sách (và cùng user+book) chạy tuần tự
		book, err := tx.Books().GetForUpdate(ctx, params.BookID)
		if err != nil {
			return err
		}
		if book.IsDeleted {
			return model.ErrBookDeleted
		}
		if book.AvailableStock < 1 {
			return invmodel.NewOutOfStockError(book.ID)
		}

		active, err := tx.Loans().HasActiveLoan(ctx, params.UserID, params.BookID)
		if err != nil {
			return err
		}
		if active {
			return model.ErrActiveLoanExists
		}

		if _, err := tx.Ledger().Reserve(ctx, params.BookID, params.ID); err != nil {
			return err
		}
		if _, err := tx.Loans().Create(ctx, params); err != nil {
			return err
		}

		detail, err = tx.Loans().GetDetail(ctx, params.ID)
		return err
	})
	if err != nil {
		return nil, s.classify("create borrow", err)
	}

	logger.Info("[Borrowing] book borrowed", map[string]interface{}{
		"borrow_id": params.ID.String(),
		"user_id":   params.UserID.String(),
		"book_id":   params.BookID.String(),
		"due_date":  params.DueDate,
	})
	s.notify(ctx, params.BookID, "borrowed")
	return detail, nil
}

// =====================================================
// UPDATE / RETURN
// =====================================================

func (s *BorrowService) UpdateBorrow(ctx context.Context, id uuid.UUID, req model.UpdateBorrowRequest) (*model.BorrowDetail, error) {
	return s.update(ctx, opUpdate, id, req)
}

func (s *BorrowService) ReturnBorrow(ctx context.Context, id uuid.UUID, returnDate *time.Time) (*model.BorrowDetail, error) {
	status := string(model.StatusReturned)
	return s.update(ctx, opReturn, id, model.UpdateBorrowRequest{Status: &status, ReturnDate: returnDate})
}

func (s *BorrowService) update(ctx context.Context, op string, id uuid.UUID, req model.UpdateBorrowRequest) (detail *model.BorrowDetail, err error) {
	defer func() { s.observe(op, err) }()

	now := s.now()
	if err := req.Validate(now); err != nil {
		return nil, err
	}
	today := utils.StartOfDay(now, s.cfg.Location)

	var (
		bookID   uuid.UUID
		released bool
	)
	err = s.uow.Execute(ctx, func(ctx context.Context, tx TxRepositories) error {
		cur, err := tx.Loans().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		bookID = cur.BookID

		released, err = applyPatch(ctx, tx, cur, req, today)
		if err != nil {
			return err
		}

		detail, err = tx.Loans().GetDetail(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.classify(op+" borrow", err)
	}

	if released {
		logger.Info("[Borrowing] book returned", map[string]interface{}{
			"borrow_id": id.String(),
			"book_id":   bookID.String(),
		})
		s.notify(ctx, bookID, "returned")
	}
	return detail, nil
}

// applyPatch chạy trong transaction với cur đã bị khóa.
// Trả released=true khi một bản sách được cộng lại vào tồn.
func applyPatch(ctx context.Context, tx TxRepositories, cur *model.BorrowTransaction, req model.UpdateBorrowRequest, today time.Time) (bool, error) {
	target := req.TargetStatus()
	if target == "" {
		// chỉ sửa returnDate: hợp lệ khi đã RETURNED
		if cur.Status != model.StatusReturned {
			return false, model.NewTransitionError(cur.Status, cur.Status, "returnDate requires status RETURNED")
		}
		target = model.StatusReturned
	}
	if target != model.StatusReturned && req.ReturnDate != nil {
		return false, model.NewTransitionError(cur.Status, target, "returnDate requires status RETURNED")
	}
	if req.ReturnDate != nil && req.ReturnDate.Before(cur.BorrowDate) {
		return false, validation.Errors{"returnDate": errors.New("must not be before borrowDate")}
	}

	switch {
	case target == model.StatusReturned:
		released := false
		if cur.Status != model.StatusReturned {
			if _, err := tx.Ledger().Release(ctx, cur.BookID, cur.ID); err != nil {
				return false, err
			}
			released = true
		}
		_, _, err := tx.Loans().TransitionToReturned(ctx, cur.ID, req.ReturnDate)
		return released, err

	case cur.Status == model.StatusReturned:
		return false, model.NewTransitionError(cur.Status, target, "returned loans are final")

	case target == cur.Status:
		return false, nil

	case target == model.StatusOverdue:
		if !cur.IsDue(today) {
			return false, model.NewTransitionError(cur.Status, target, "loan is not past its due date")
		}
		_, err := tx.Loans().MarkOverdue(ctx, cur.ID)
		return false, err

	default:
		return false, model.NewTransitionError(cur.Status, target, "overdue loans cannot be reopened")
	}
}

// =====================================================
// REMOVE
// =====================================================

func (s *BorrowService) RemoveBorrow(ctx context.Context, id uuid.UUID) (err error) {
	defer func() { s.observe(opRemove, err) }()

	err = s.uow.Execute(ctx, func(ctx context.Context, tx TxRepositories) error {
		removed, err := tx.Loans().SoftDelete(ctx, id)
		if err != nil {
			return err
		}
		if removed.Status.IsActive() {
			// Tồn kho giữ nguyên: bản sách vẫn được tính là đang cho mượn
			logger.Warn("[Borrowing] active loan removed", map[string]interface{}{
				"borrow_id": id.String(),
				"book_id":   removed.BookID.String(),
				"status":    string(removed.Status),
			})
		}
		return nil
	})
	if err != nil {
		return s.classify("remove borrow", err)
	}
	return nil
}

// =====================================================
// READ
// =====================================================

func (s *BorrowService) GetBorrow(ctx context.Context, id uuid.UUID) (*model.BorrowDetail, error) {
	detail, err := s.loans.GetDetail(ctx, id)
	if err != nil {
		return nil, s.classify("get borrow", err)
	}
	return detail, nil
}

func (s *BorrowService) ListBorrows(ctx context.Context, q model.ListBorrowsQuery) (pagination.Result[model.BorrowDetail], error) {
	if err := q.Validate(); err != nil {
		return pagination.Result[model.BorrowDetail]{}, err
	}
	p := pagination.Normalize(q.Page, q.Limit)

	items, total, err := s.loans.List(ctx, q.Filter(p))
	if err != nil {
		return pagination.Result[model.BorrowDetail]{}, s.classify("list borrows", err)
	}
	return pagination.NewResult(items, total, p), nil
}

// ListMyBorrows bỏ qua userId trong query, luôn lọc theo caller
func (s *BorrowService) ListMyBorrows(ctx context.Context, caller *auth.Identity, q model.ListBorrowsQuery) (pagination.Result[model.BorrowDetail], error) {
	if caller == nil {
		return pagination.Result[model.BorrowDetail]{}, model.ErrUnauthenticated
	}
	q.UserID = caller.ID.String()
	return s.ListBorrows(ctx, q)
}

// =====================================================
// HELPERS
// =====================================================

// classify giữ nguyên lỗi nghiệp vụ, còn lại bọc thành StoreUnavailable
func (s *BorrowService) classify(op string, err error) error {
	if model.IsBusiness(err) || invmodel.IsStockInvariant(err) {
		return err
	}
	logger.Error("[Borrowing] "+op+" failed", err, nil)
	return model.NewStoreError(op, err)
}

func (s *BorrowService) observe(op string, err error) {
	s.metrics.ObserveBorrow(op, outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, model.ErrUnauthenticated):
		return metrics.OutcomeUnauthorized
	case model.IsOutOfStock(err):
		return metrics.OutcomeOutOfStock
	case model.IsNotFound(err):
		return metrics.OutcomeNotFound
	case model.IsConflict(err):
		return metrics.OutcomeConflict
	case model.IsValidation(err):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

func (s *BorrowService) notify(ctx context.Context, bookID uuid.UUID, reason string) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyAvailabilityChanged(context.WithoutCancel(ctx), bookID, reason)
}
