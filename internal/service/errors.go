package service

import (
	"errors"
	"fmt"
)

// Domain errors returned by services. Handlers map them to HTTP status codes.
var (
	ErrValidation         = errors.New("validation failed")
	ErrMissingToken       = errors.New("missing token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("user already exists")
	ErrWeakPassword       = errors.New("password must be at least 6 characters long")
	ErrDependency         = errors.New("dependency unavailable")

	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
)

// Reset token failure causes. All of them match ErrInvalidOrExpiredToken.
var (
	ErrResetTokenUnknown  = fmt.Errorf("%w: unknown", ErrInvalidOrExpiredToken)
	ErrResetTokenExpired  = fmt.Errorf("%w: expired", ErrInvalidOrExpiredToken)
	ErrResetTokenConsumed = fmt.Errorf("%w: already used", ErrInvalidOrExpiredToken)
)

// validationError wraps ErrValidation with a caller-facing reason.
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// dependencyError marks a store or provider failure.
func dependencyError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrDependency, err)
}
