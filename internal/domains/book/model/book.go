package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Book là entity của catalog. AvailableStock chỉ được inventory ledger thay đổi.
type Book struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	Title          string         `json:"title" db:"title"`
	Description    *string        `json:"description,omitempty" db:"description"`
	PublishDate    time.Time      `json:"publishDate" db:"publish_date"`
	Stock          int            `json:"stock" db:"stock"`
	AvailableStock int            `json:"availableStock" db:"available_stock"`
	Authors        pq.StringArray `json:"authors" db:"authors"`
	Categories     pq.StringArray `json:"categories" db:"categories"`

	IsDeleted bool       `json:"-" db:"is_deleted"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
	Version   int        `json:"version" db:"version"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// CanBorrow reports whether a copy can be reserved right now.
func (b *Book) CanBorrow() bool {
	return b != nil && !b.IsDeleted && b.AvailableStock >= 1
}

// BookFilter - filter cho list query
type BookFilter struct {
	Title    string
	Author   string
	Category string
	Offset   int
	Limit    int
}

func BookDetailCacheKey(id uuid.UUID) string {
	return "book:detail:" + id.String()
}
