package service

import (
	"context"
	"time"

	"library-backend/internal/domains/borrowing/model"
	"library-backend/internal/domains/borrowing/repository"
	"library-backend/internal/infrastructure/metrics"
	"library-backend/internal/shared/utils"
	"library-backend/pkg/logger"
)

// Sweeper chuyển BORROWED quá hạn sang OVERDUE.
// asOf = đầu ngày hiện tại nên chạy lại trong ngày không đổi gì thêm,
// và bỏ lỡ vài tick thì lần chạy sau vẫn bắt kịp.
type Sweeper struct {
	loans   repository.RepositoryInterface
	loc     *time.Location
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewSweeper(loans repository.RepositoryInterface, loc *time.Location, m *metrics.Metrics) *Sweeper {
	if loc == nil {
		loc = time.UTC
	}
	return &Sweeper{loans: loans, loc: loc, metrics: m, now: time.Now}
}

func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

func (s *Sweeper) RunSweepNow(ctx context.Context) (int64, error) {
	start := time.Now()
	asOf := utils.StartOfDay(s.now(), s.loc)

	changed, err := s.loans.SweepOverdue(ctx, asOf)
	s.metrics.ObserveSweep(changed, time.Since(start), err)
	if err != nil {
		logger.Error("[Sweeper] overdue sweep failed", err, map[string]interface{}{"as_of": asOf})
		return 0, model.NewStoreError("sweep overdue", err)
	}

	logger.Info("[Sweeper] overdue sweep completed", map[string]interface{}{
		"as_of":   asOf,
		"changed": changed,
		"took_ms": time.Since(start).Milliseconds(),
	})
	return changed, nil
}
