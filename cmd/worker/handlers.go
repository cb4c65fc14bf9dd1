package main

import (
	"github.com/hibiken/asynq"

	borrowJob "library-backend/internal/domains/borrowing/job"
	invJob "library-backend/internal/domains/inventory/job"
	"library-backend/internal/shared"
	"library-backend/pkg/container"
)

// HandlerRegistry giữ tất cả job handlers của worker
type HandlerRegistry struct {
	sweepOverdue        *borrowJob.SweepOverdueHandler
	availabilityChanged *invJob.AvailabilityChangedHandler
}

func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		sweepOverdue:        c.SweepOverdueJob,
		availabilityChanged: c.AvailabilityChangedJob,
	}
}

// RegisterHandlers đăng ký handlers vào mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	// Borrowing
	mux.HandleFunc(shared.TypeSweepOverdue, h.sweepOverdue.ProcessTask)

	// Inventory / catalog cache
	mux.HandleFunc(shared.TypeBookAvailabilityChanged, h.availabilityChanged.ProcessTask)
}
