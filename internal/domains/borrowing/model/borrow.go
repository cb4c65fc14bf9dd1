package model

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusBorrowed Status = "BORROWED"
	StatusOverdue  Status = "OVERDUE"
	StatusReturned Status = "RETURNED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusBorrowed, StatusOverdue, StatusReturned:
		return true
	}
	return false
}

// IsActive: khoản mượn còn giữ một bản sách
func (s Status) IsActive() bool {
	return s == StatusBorrowed || s == StatusOverdue
}

// BorrowTransaction - một lần mượn sách.
// ReturnDate != nil khi và chỉ khi Status == RETURNED.
type BorrowTransaction struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     uuid.UUID  `json:"userId" db:"user_id"`
	BookID     uuid.UUID  `json:"bookId" db:"book_id"`
	BorrowDate time.Time  `json:"borrowDate" db:"borrow_date"`
	DueDate    time.Time  `json:"dueDate" db:"due_date"`
	ReturnDate *time.Time `json:"returnDate,omitempty" db:"return_date"`
	Status     Status     `json:"status" db:"status"`

	IsDeleted bool       `json:"-" db:"is_deleted"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// IsDue: quá hạn tính theo đầu ngày asOf
func (t *BorrowTransaction) IsDue(asOf time.Time) bool {
	return t.DueDate.Before(asOf)
}

type BookSummary struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// BorrowDetail - transaction kèm context sách/người mượn
type BorrowDetail struct {
	BorrowTransaction
	Book BookSummary `json:"book"`
	User UserSummary `json:"user"`
}

// CreateParams - ID được sinh trước để ledger ghi reference cùng transaction
type CreateParams struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	BookID  uuid.UUID
	DueDate time.Time
}

type ListFilter struct {
	Status *Status
	UserID *uuid.UUID
	BookID *uuid.UUID
	Offset int
	Limit  int
}
