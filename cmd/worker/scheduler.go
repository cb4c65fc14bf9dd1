package main

import (
	"fmt"

	"library-backend/internal/infrastructure/queue"
	"library-backend/pkg/container"
	"library-backend/pkg/logger"
)

// asynqScheduler wraps queue.Scheduler
type asynqScheduler struct {
	*queue.Scheduler
	stopped chan struct{}
}

// setupScheduler đăng ký cron jobs (sweep overdue)
func setupScheduler(c *container.Container) (*asynqScheduler, error) {
	scheduler := queue.NewScheduler(c.RedisOpt, c.Config.Borrowing)
	if err := scheduler.RegisterJobs(); err != nil {
		return nil, fmt.Errorf("register scheduled jobs: %w", err)
	}
	return &asynqScheduler{Scheduler: scheduler, stopped: make(chan struct{})}, nil
}

// Run block cho tới Shutdown
func (s *asynqScheduler) Run() error {
	logger.Info("[Scheduler] Starting...", nil)
	if err := s.Scheduler.Start(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	<-s.stopped
	return nil
}

func (s *asynqScheduler) Shutdown() {
	logger.Info("[Scheduler] Shutting down...", nil)
	s.Scheduler.Shutdown()
	close(s.stopped)
}
