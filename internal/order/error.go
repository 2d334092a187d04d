package order

import "errors"

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidCustomerName = errors.New("customer name is required")
	ErrEmptyOrder          = errors.New("order has no items")
	ErrInvalidQuantity     = errors.New("item quantity must be positive")
	ErrInvalidPrice        = errors.New("item price must not be negative")
	ErrTotalMismatch       = errors.New("order total does not match items")
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrInvalidScope        = errors.New("invalid order scope")
	ErrNoTransition        = errors.New("order is already delivered")
	ErrStatusConflict      = errors.New("order status changed concurrently")
	ErrNotesTooLong        = errors.New("notes are too long")
	ErrDuplicateInvoice    = errors.New("invoice number already used")
)

// IsValidation reports whether err is a caller input error.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidCustomerName, ErrEmptyOrder, ErrInvalidQuantity, ErrInvalidPrice,
		ErrTotalMismatch, ErrInvalidStatus, ErrInvalidScope, ErrNotesTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
