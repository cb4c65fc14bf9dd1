package job

import (
	"context"
	"encoding/json"
	"fmt"

	"library-backend/internal/domains/borrowing/service"
	"library-backend/internal/shared"
	"library-backend/pkg/logger"

	"github.com/hibiken/asynq"
)

// SweepOverdueHandler chạy sweep theo lịch cron của scheduler.
// Lỗi không retry qua asynq: tick kế tiếp chính là lần thử lại.
type SweepOverdueHandler struct {
	sweeper service.SweeperInterface
}

func NewSweepOverdueHandler(sweeper service.SweeperInterface) *SweepOverdueHandler {
	return &SweepOverdueHandler{sweeper: sweeper}
}

func (h *SweepOverdueHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.SweepOverduePayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Warn("SweepOverdue: ignoring malformed payload", map[string]interface{}{"error": err.Error()})
		}
	}

	changed, err := h.sweeper.RunSweepNow(ctx)
	if err != nil {
		logger.Error("SweepOverdue: sweep failed, waiting for next tick", err, map[string]interface{}{
			"triggered_by": payload.TriggeredBy,
		})
		return fmt.Errorf("sweep overdue: %w: %w", err, asynq.SkipRetry)
	}

	logger.Info("SweepOverdue: done", map[string]interface{}{
		"changed":      changed,
		"triggered_by": payload.TriggeredBy,
	})
	return nil
}
