package main

import (
	"context"
	"fmt"

	"library-backend/internal/shared"
	"library-backend/pkg/container"
	"library-backend/pkg/logger"

	"github.com/hibiken/asynq"
)

// asynqServer wraps asynq.Server cùng mux đã đăng ký
type asynqServer struct {
	*asynq.Server
	mux     *asynq.ServeMux
	stopped chan struct{}
}

func setupAsynqServer(c *container.Container, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	srv := asynq.NewServer(
		c.RedisOpt,
		asynq.Config{
			Queues: map[string]int{
				shared.QueueCritical: 6,
				shared.QueueDefault:  3,
				shared.QueueLow:      1,
			},
			Concurrency: c.Config.Worker.Concurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.Error("[Asynq] Task failed", err, map[string]interface{}{
					"type":      task.Type(),
					"retried":   retried,
					"max_retry": maxRetry,
				})
			}),
		},
	)

	return &asynqServer{Server: srv, mux: mux, stopped: make(chan struct{})}
}

// Run block tới khi Shutdown được gọi
func (s *asynqServer) Run() error {
	logger.Info("[Worker] Starting...", nil)
	if err := s.Server.Start(s.mux); err != nil {
		return fmt.Errorf("asynq server: %w", err)
	}
	<-s.stopped
	return nil
}

// Shutdown chờ các task đang chạy xong rồi trả Run về
func (s *asynqServer) Shutdown() {
	logger.Info("[Worker] Shutting down...", nil)
	s.Server.Shutdown()
	close(s.stopped)
	logger.Info("[Worker] Stopped", nil)
}
