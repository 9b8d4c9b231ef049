package user

import "animeshop-be/internal/apperr"

var (
	ErrUserExists         = apperr.Validation("User already exists")
	ErrInvalidCredentials = apperr.Authentication("Invalid email or password")
	ErrUserNotFound       = apperr.NotFound("User not found")
	ErrMissingFields      = apperr.Validation("First name, last name, email and password are required")
	ErrInvalidRole        = apperr.Validation("Role must be user or admin")
	ErrPasswordTooShort   = apperr.Validation("Password must be at least 6 characters")
)
