package order

import "animeshop-be/internal/apperr"

var (
	ErrOrderNotFound     = apperr.NotFound("Order not found")
	ErrCartNotFound      = apperr.NotFound("Cart not found")
	ErrNoOrderItems      = apperr.Validation("No order items")
	ErrInvalidLineItem   = apperr.Validation("Invalid order item")
	ErrStatusRequired    = apperr.Validation("Status is required")
	ErrInvalidStatus     = apperr.Validation("Invalid status")
	ErrIllegalTransition = apperr.Validation("Illegal status transition")
	ErrCartNotPlaced     = apperr.Validation("Cart has not been placed as an order")
	ErrNotAuthorized     = apperr.Authorization("Not authorized to access this order")
	ErrNotAdmin          = apperr.Authorization("Not authorized as admin")
	ErrRegisteredOnly    = apperr.Authorization("Not authorized, a registered account is required")
	ErrVersionConflict   = apperr.Conflict("Cart was modified concurrently")
	ErrStatusConflict    = apperr.Conflict("Order status was changed concurrently")
)
