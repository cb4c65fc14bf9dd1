package queue

import (
	"encoding/json"
	"time"

	"library-backend/internal/config"
	"library-backend/internal/shared"
	"library-backend/pkg/logger"

	"github.com/hibiken/asynq"
)

// Registrar là phần của *asynq.Scheduler dùng để đăng ký cron
type Registrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

type Scheduler struct {
	scheduler *asynq.Scheduler
	cfg       config.BorrowingConfig
}

// NewScheduler - cron được tính theo SWEEP_TIMEZONE
func NewScheduler(redisOpt asynq.RedisClientOpt, cfg config.BorrowingConfig) *Scheduler {
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: cfg.Location(),
		LogLevel: asynq.InfoLevel,
	})
	return &Scheduler{scheduler: scheduler, cfg: cfg}
}

func (s *Scheduler) RegisterJobs() error {
	return RegisterSweepJob(s.scheduler, s.cfg)
}

// ================================================
// Overdue sweep (SWEEP_CRON, mặc định 00:00 mỗi ngày)
// ================================================
// MaxRetry(0): lần chạy lỗi được thử lại ở tick sau.
func RegisterSweepJob(r Registrar, cfg config.BorrowingConfig) error {
	payload, err := json.Marshal(shared.SweepOverduePayload{TriggeredBy: "scheduler"})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeSweepOverdue, payload)
	_, err = r.Register(
		cfg.SweepCron,
		task,
		asynq.Queue(shared.QueueCritical),
		asynq.MaxRetry(0),
		asynq.Timeout(10*time.Minute),
		asynq.Unique(time.Hour),
	)
	if err != nil {
		logger.Error("Failed to register SweepOverdue job", err, map[string]interface{}{"cron": cfg.SweepCron})
		return err
	}

	logger.Info("Registered SweepOverdue", map[string]interface{}{
		"cron":     cfg.SweepCron,
		"timezone": cfg.SweepTimezone,
	})
	return nil
}

// Start không block; dừng bằng Shutdown
func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
