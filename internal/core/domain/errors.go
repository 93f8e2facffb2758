package domain

import (
	"errors"
	"fmt"
)

var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrCartFinalized    = errors.New("cart already finalized")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrEmptyCart        = errors.New("cart has no lines")
	ErrAborted          = errors.New("checkout transaction aborted")
	ErrDuplicateCommit  = errors.New("cart already submitted for commit")
	ErrUnknownOutcome   = errors.New("commit outcome unknown")
)

// UnknownItemError reports a line that names no catalog item.
type UnknownItemError struct {
	ItemName string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("unknown item %q", e.ItemName)
}

// InsufficientStockError reports a line whose quantity exceeds the stock
// available at validation time.
type InsufficientStockError struct {
	ItemName  string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ItemName, e.Requested, e.Available)
}
