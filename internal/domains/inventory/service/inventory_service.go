package service

import (
	"context"

	"library-backend/internal/domains/inventory/model"
	"library-backend/internal/domains/inventory/repository"
	"library-backend/internal/shared/pagination"

	"github.com/google/uuid"
)

type InventoryService struct {
	ledger repository.LedgerInterface
}

func NewService(ledger repository.LedgerInterface) ServiceInterface {
	return &InventoryService{ledger: ledger}
}

// GetAvailability - sách đã xóa vẫn trả snapshot nhưng CanBorrow = false
func (s *InventoryService) GetAvailability(ctx context.Context, bookID uuid.UUID) (*model.Availability, error) {
	return s.ledger.Snapshot(ctx, bookID)
}

func (s *InventoryService) ListMovements(ctx context.Context, bookID uuid.UUID, page, limit int) (pagination.Result[model.Movement], error) {
	p := pagination.Normalize(page, limit)

	// 404 thay vì list rỗng khi book không tồn tại
	if _, err := s.ledger.Snapshot(ctx, bookID); err != nil {
		return pagination.Result[model.Movement]{}, err
	}

	movements, total, err := s.ledger.ListMovements(ctx, bookID, p.Limit, p.Offset)
	if err != nil {
		return pagination.Result[model.Movement]{}, err
	}
	return pagination.NewResult(movements, total, p), nil
}
