package shared

import "time"

// Asynq task types
const (
	TypeSweepOverdue            = "borrowing:sweep_overdue"
	TypeBookAvailabilityChanged = "book:availability_changed"
)

// Asynq queues
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// SweepOverduePayload is optional; an empty payload sweeps as of today.
type SweepOverduePayload struct {
	TriggeredBy string `json:"triggeredBy,omitempty"`
}

// BookAvailabilityChangedPayload is enqueued after a borrow/return commit.
type BookAvailabilityChangedPayload struct {
	BookID    string    `json:"bookId"`
	Reason    string    `json:"reason"`
	ChangedAt time.Time `json:"changedAt"`
}
