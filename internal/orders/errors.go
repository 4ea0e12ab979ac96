package orders

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("invalid order input")
	ErrOrderNotFound = errors.New("order not found")
	ErrBadTransition = errors.New("status transition not allowed")
)

// ProductNotFoundError: a line item referenced a product that is not in the
// catalog. The whole placement rolls back.
type ProductNotFoundError struct {
	ID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ID)
}

// InsufficientStockError carries the display name of the product that could
// not be decremented, for the customer-facing message.
type InsufficientStockError struct {
	Product string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q", e.Product)
}
