package model

import (
	"time"

	"github.com/google/uuid"
)

// Availability là snapshot tồn của một đầu sách
type Availability struct {
	BookID         uuid.UUID `json:"bookId"`
	Stock          int       `json:"stock"`
	AvailableStock int       `json:"availableStock"`
	OnLoan         int       `json:"onLoan"`
	IsDeleted      bool      `json:"isDeleted"`
}

func (a Availability) CanBorrow() bool {
	return !a.IsDeleted && a.AvailableStock > 0
}

type MovementType string

const (
	MovementReserve MovementType = "reserve"
	MovementRelease MovementType = "release"
)

func (m MovementType) Delta() int {
	if m == MovementReserve {
		return -1
	}
	return 1
}

// Movement - audit trail, mỗi lần reserve/release ghi một dòng trong cùng transaction
type Movement struct {
	ID             int64        `json:"id"`
	BookID         uuid.UUID    `json:"bookId"`
	MovementType   MovementType `json:"movementType"`
	Delta          int          `json:"delta"`
	AvailableAfter int          `json:"availableAfter"`
	ReferenceID    *uuid.UUID   `json:"referenceId,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}
