package model

import (
	"errors"
	"fmt"

	bookmodel "library-backend/internal/domains/book/model"

	"github.com/google/uuid"
)

// ============================================
// LEDGER ERRORS
// ============================================

var (
	// Cùng sentinel với catalog để handler map một lần
	ErrBookNotFound = bookmodel.ErrBookNotFound

	ErrBookDeleted = errors.New("book has been deleted")
	ErrOutOfStock  = errors.New("book is out of stock")

	// availableStock sẽ vượt khỏi [0, stock]: lỗi logic, không phải lỗi người dùng
	ErrStockInvariant = errors.New("available stock invariant violated")
)

func NewOutOfStockError(bookID uuid.UUID) error {
	return fmt.Errorf("%w: book_id=%s", ErrOutOfStock, bookID)
}

func NewStockInvariantError(bookID uuid.UUID, op string) error {
	return fmt.Errorf("%w: %s book_id=%s", ErrStockInvariant, op, bookID)
}

func IsOutOfStock(err error) bool { return errors.Is(err, ErrOutOfStock) }

func IsBookUnavailable(err error) bool {
	return errors.Is(err, ErrBookNotFound) || errors.Is(err, ErrBookDeleted)
}

func IsStockInvariant(err error) bool { return errors.Is(err, ErrStockInvariant) }
