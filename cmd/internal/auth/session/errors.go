package session

import (
	"errors"
	"fmt"

	"sessiond/cmd/internal/storage"
)

var (
	// ErrUnauthorized is returned when no bearer token was presented.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken covers bad signatures, malformed tokens, missing claims
	// and expired tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrNothingToInvalidate is returned by Logout when no valid row matched
	// the token (already logged out, or replaced by a newer login).
	// It is not a failure of the request.
	ErrNothingToInvalidate = fmt.Errorf("session not found or already invalidated: %w", storage.ErrNotFound)

	// ErrSessionRevoked is returned when the session row was invalidated.
	ErrSessionRevoked = errors.New("session revoked")

	// ErrSessionExpired is returned when the session row is past its expiry.
	ErrSessionExpired = errors.New("session expired")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
