package job

import (
	"context"
	"encoding/json"
	"fmt"

	"library-backend/internal/domains/inventory/repository"
	"library-backend/internal/shared"
	"library-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// BookInvalidator - phần của book service mà job cần
type BookInvalidator interface {
	InvalidateBook(ctx context.Context, id uuid.UUID) error
}

// AvailabilityChangedHandler xóa cache chi tiết sách sau khi borrow/return commit,
// để GET /books/:id phản ánh availableStock mới.
type AvailabilityChangedHandler struct {
	ledger repository.LedgerInterface
	books  BookInvalidator
}

func NewAvailabilityChangedHandler(ledger repository.LedgerInterface, books BookInvalidator) *AvailabilityChangedHandler {
	return &AvailabilityChangedHandler{ledger: ledger, books: books}
}

func (h *AvailabilityChangedHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.BookAvailabilityChangedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("AvailabilityChanged: failed to unmarshal payload", err, nil)
		// payload hỏng thì retry cũng vô ích
		return fmt.Errorf("unmarshal availability payload: %v: %w", err, asynq.SkipRetry)
	}

	bookID, err := uuid.Parse(payload.BookID)
	if err != nil {
		logger.Error("AvailabilityChanged: invalid book_id", err, map[string]interface{}{"book_id": payload.BookID})
		return fmt.Errorf("invalid book_id %q: %w", payload.BookID, asynq.SkipRetry)
	}

	// Redis lỗi → để asynq retry
	if err := h.books.InvalidateBook(ctx, bookID); err != nil {
		logger.Error("AvailabilityChanged: cache invalidation failed", err, map[string]interface{}{"book_id": payload.BookID})
		return err
	}

	fields := map[string]interface{}{
		"book_id": payload.BookID,
		"reason":  payload.Reason,
	}
	if snap, err := h.ledger.Snapshot(ctx, bookID); err == nil {
		fields["available_stock"] = snap.AvailableStock
		fields["stock"] = snap.Stock
	}
	logger.Info("AvailabilityChanged: book cache invalidated", fields)
	return nil
}
