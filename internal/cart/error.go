package cart

import "errors"

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrInvalidOwner       = errors.New("invalid cart owner")
)
