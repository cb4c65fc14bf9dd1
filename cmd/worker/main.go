// cmd/worker/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"library-backend/pkg/container"
	"library-backend/pkg/logger"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	c, err := container.NewContainer()
	if err != nil {
		logger.Error("[Container] Failed to initialize", err, nil)
		os.Exit(1)
	}
	defer c.Cleanup()

	if err := run(c); err != nil {
		logger.Error("[Worker] Stopped with error", err, nil)
		c.Cleanup()
		os.Exit(1)
	}
}

// run giữ asynq server, scheduler và health server trong một errgroup:
// một thành phần lỗi thì cả process dừng.
func run(c *container.Container) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handlers := initializeHandlers(c)
	srv := setupAsynqServer(c, handlers)

	scheduler, err := setupScheduler(c)
	if err != nil {
		return err
	}
	health := newHealthServer(c)

	logStartup(c)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run() })
	g.Go(func() error { return scheduler.Run() })
	g.Go(func() error { return health.Run() })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("[Shutdown] Gracefully stopping...", nil)
		scheduler.Shutdown()
		srv.Shutdown()
		health.Shutdown()
		logger.Info("[Shutdown] Stopped", nil)
		return nil
	})

	return g.Wait()
}
