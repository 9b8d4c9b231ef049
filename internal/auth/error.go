package auth

import "animeshop-be/internal/apperr"

var (
	ErrNoToken      = apperr.Authentication("Not authorized, no token")
	ErrTokenInvalid = apperr.Authentication("Not authorized, token failed")
	ErrNotAdmin     = apperr.Authorization("Not authorized as admin")
)
