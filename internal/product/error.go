package product

import "animeshop-be/internal/apperr"

var (
	ErrProductNotFound = apperr.NotFound("Product not found")
	ErrImageRequired   = apperr.Validation("Product image is required")
	ErrNameRequired    = apperr.Validation("Product name is required")
	ErrInvalidPrice    = apperr.Validation("Price must be a non-negative number")
	ErrInvalidRating   = apperr.Validation("Rating must be a finite number")
	ErrFieldRequired   = apperr.Validation("Missing required product field")
	ErrNothingToUpdate = apperr.Validation("No product fields to update")
)
