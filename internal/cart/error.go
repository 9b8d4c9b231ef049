package cart

import "animeshop-be/internal/apperr"

var (
	ErrNoItems         = apperr.Validation("Cart items are required")
	ErrInvalidQuantity = apperr.Validation("Quantity must be at least 1")
	ErrItemNotInCart   = apperr.NotFound("Item not found in cart")
	ErrCartConflict    = apperr.Conflict("Cart is being updated elsewhere, please retry")
	ErrRegisteredOnly  = apperr.Authorization("Not authorized, a registered account is required")
)
