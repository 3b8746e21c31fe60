package catalog

import "errors"

// Domain errors for catalog module.
var (
	ErrProductNotFound  = errors.New("product not found")
	ErrNameRequired     = errors.New("name is required")
	ErrNameTooLong      = errors.New("name must be at most 255 characters")
	ErrPriceRequired    = errors.New("price is required")
	ErrInvalidPrice     = errors.New("price must be a non-negative number")
	ErrImageRequired    = errors.New("image is required")
	ErrInvalidImageType = errors.New("image must be png, jpg, jpeg or gif")
	ErrForbidden        = errors.New("insufficient permissions")
)
