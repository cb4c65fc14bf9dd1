package model

import "errors"

var (
	ErrBookNotFound     = errors.New("book not found")
	ErrVersionConflict  = errors.New("version conflict: book was modified by another user")
	ErrStockBelowOnLoan = errors.New("stock cannot be reduced below the number of copies on loan")
	ErrInvalidStock     = errors.New("availableStock must be between 0 and stock")
)
