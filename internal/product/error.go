package product

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductInactive = errors.New("product is not available")
	ErrInvalidName     = errors.New("product name is required")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidRating   = errors.New("rating must be between 0 and 5")
	ErrForbidden       = errors.New("forbidden")
)
