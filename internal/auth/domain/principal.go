package domain

import "errors"

var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidClaims     = errors.New("invalid token claims")
	ErrInvalidServiceKey = errors.New("invalid service key")
)

// Principal is the authenticated caller of a request
type Principal struct {
	UserID string
	// Service is set for scheduler/internal callers using the service key.
	Service bool
}
