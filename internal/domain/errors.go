package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a missing entity id. Absence is an expected outcome,
// callers check with errors.Is rather than treating it as a failure.
var ErrNotFound = errors.New("not found")

// ErrProductHasSales rejects deleting a product still referenced by
// historical sales. Hard-deleting would orphan report rows.
var ErrProductHasSales = errors.New("product has recorded sales")

// ValidationError reports malformed input rejected before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientStockError carries the available quantity so the caller can
// show the user how many units can still be sold.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
