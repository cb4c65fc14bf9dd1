package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"library-backend/internal/shared"
	"library-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Enqueuer là phần của *asynq.Client mà Publisher cần
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Publisher đẩy event sau commit lên asynq
type Publisher struct {
	client Enqueuer
	now    func() time.Time
}

func NewPublisher(client Enqueuer) *Publisher {
	return &Publisher{client: client, now: time.Now}
}

// NotifyAvailabilityChanged enqueue task invalidate cache cho book.
// Lỗi chỉ log: loan đã commit, cache tự hết hạn theo TTL.
func (p *Publisher) NotifyAvailabilityChanged(ctx context.Context, bookID uuid.UUID, reason string) {
	if err := p.enqueueAvailabilityChanged(ctx, bookID, reason); err != nil {
		logger.Error("[Queue] enqueue availability change failed", err, map[string]interface{}{
			"book_id": bookID.String(),
			"reason":  reason,
		})
	}
}

func (p *Publisher) enqueueAvailabilityChanged(ctx context.Context, bookID uuid.UUID, reason string) error {
	payload, err := json.Marshal(shared.BookAvailabilityChangedPayload{
		BookID:    bookID.String(),
		Reason:    reason,
		ChangedAt: p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	task := asynq.NewTask(shared.TypeBookAvailabilityChanged, payload)
	_, err = p.client.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", shared.TypeBookAvailabilityChanged, err)
	}
	return nil
}
