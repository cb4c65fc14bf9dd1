package service

import (
	"context"

	"library-backend/internal/domains/inventory/model"
	"library-backend/internal/shared/pagination"

	"github.com/google/uuid"
)

// ServiceInterface - read side của ledger. Reserve/Release chỉ đi qua borrowing.
type ServiceInterface interface {
	GetAvailability(ctx context.Context, bookID uuid.UUID) (*model.Availability, error)
	ListMovements(ctx context.Context, bookID uuid.UUID, page, limit int) (pagination.Result[model.Movement], error)
}
