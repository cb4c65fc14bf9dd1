package model

import (
	"errors"
	"fmt"

	invmodel "library-backend/internal/domains/inventory/model"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// =====================================================
// CUSTOM ERROR CODES
// =====================================================
const (
	ErrCodeUnauthenticated   = "BRW001"
	ErrCodeBorrowNotFound    = "BRW002"
	ErrCodeBookNotFound      = "BRW003"
	ErrCodeOutOfStock        = "BRW004"
	ErrCodeActiveLoanExists  = "BRW005"
	ErrCodeInvalidTransition = "BRW006"
	ErrCodeValidation        = "BRW007"
	ErrCodeStoreUnavailable  = "BRW008"
)

// =====================================================
// ERROR DEFINITIONS
// =====================================================
var (
	ErrUnauthenticated   = errors.New("authentication required")
	ErrBorrowNotFound    = errors.New("borrow transaction not found")
	ErrActiveLoanExists  = errors.New("user already has an active loan for this book")
	ErrInvalidTransition = errors.New("invalid borrow status transition")
	ErrValidation        = errors.New("validation failed")
	ErrStoreUnavailable  = errors.New("store unavailable")

	// Ledger sentinels, dùng chung để errors.Is match xuyên domain
	ErrBookNotFound = invmodel.ErrBookNotFound
	ErrBookDeleted  = invmodel.ErrBookDeleted
	ErrOutOfStock   = invmodel.ErrOutOfStock
)

// =====================================================
// CUSTOM ERROR TYPE
// =====================================================
type BorrowError struct {
	Code    string
	Message string
	Err     error
}

func (e *BorrowError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *BorrowError) Unwrap() error {
	return e.Err
}

func NewBorrowError(code, message string, err error) *BorrowError {
	return &BorrowError{Code: code, Message: message, Err: err}
}

// NewStoreError bọc lỗi hạ tầng; errors.Is(err, ErrStoreUnavailable) và lỗi gốc đều match
func NewStoreError(op string, err error) *BorrowError {
	return &BorrowError{
		Code:    ErrCodeStoreUnavailable,
		Message: op,
		Err:     fmt.Errorf("%w: %w", ErrStoreUnavailable, err),
	}
}

func NewTransitionError(from Status, to Status, reason string) *BorrowError {
	return &BorrowError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot move %s to %s: %s", from, to, reason),
		Err:     ErrInvalidTransition,
	}
}

// =====================================================
// HELPERS
// =====================================================

func IsNotFound(err error) bool {
	return errors.Is(err, ErrBorrowNotFound) || errors.Is(err, ErrBookNotFound) || errors.Is(err, ErrBookDeleted)
}

func IsOutOfStock(err error) bool { return errors.Is(err, ErrOutOfStock) }

func IsConflict(err error) bool {
	return errors.Is(err, ErrActiveLoanExists) || errors.Is(err, ErrInvalidTransition)
}

func IsValidation(err error) bool {
	var verrs validation.Errors
	return errors.Is(err, ErrValidation) || errors.As(err, &verrs)
}

func IsStoreUnavailable(err error) bool { return errors.Is(err, ErrStoreUnavailable) }

// IsBusiness: lỗi nghiệp vụ, không bao giờ retry
func IsBusiness(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || IsNotFound(err) || IsOutOfStock(err) ||
		IsConflict(err) || IsValidation(err)
}

// ErrorCode trả code của BorrowError đầu tiên trong chain, "" nếu không có
func ErrorCode(err error) string {
	var be *BorrowError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
