// cmd/worker/startup.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"library-backend/pkg/container"
	"library-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// healthServer expose /health (kèm lần sweep kế tiếp) và /metrics
type healthServer struct {
	srv *http.Server
}

func newHealthServer(c *container.Container) *healthServer {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", workerHealthHandler(c))
	r.GET("/ready", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "READY"})
	})
	if c.Config.Metrics.Enabled {
		r.GET(c.Config.Metrics.Path, gin.WrapH(c.Metrics.Handler()))
	}

	return &healthServer{srv: &http.Server{
		Addr:              ":" + c.Config.Worker.HealthPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

func (h *healthServer) Run() error {
	logger.Info("[Health] Starting health check server", map[string]interface{}{"addr": h.srv.Addr})
	if err := h.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}

func (h *healthServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.srv.Shutdown(ctx); err != nil {
		logger.Warn("[Health] Forced shutdown", map[string]interface{}{"error": err.Error()})
	}
}

func workerHealthHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
		defer cancel()

		body := gin.H{"status": "UP", "service": "library-worker"}
		code := http.StatusOK

		if err := c.Redis.HealthCheck(checkCtx); err != nil {
			body["status"], body["redis"] = "DOWN", err.Error()
			code = http.StatusServiceUnavailable
		}
		if err := c.DB.Ping(checkCtx); err != nil {
			body["status"], body["database"] = "DOWN", err.Error()
			code = http.StatusServiceUnavailable
		}
		if next, err := c.Config.NextSweep(time.Now()); err == nil {
			body["nextSweep"] = next
		}
		ctx.JSON(code, body)
	}
}

func logStartup(c *container.Container) {
	next, _ := c.Config.NextSweep(time.Now())
	logger.Info("Library worker starting", map[string]interface{}{
		"concurrency": c.Config.Worker.Concurrency,
		"sweep_cron":  c.Config.Borrowing.SweepCron,
		"timezone":    c.Config.Borrowing.SweepTimezone,
		"next_sweep":  next,
		"health_port": c.Config.Worker.HealthPort,
	})
}
