package identity

import (
	"errors"

	"sessiond/cmd/internal/storage"
)

// Sentinel error kinds (stable for errors.Is and for mapping to API status codes).
var (
	ErrInvalidInput       = errors.New("invalid_input")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrNotFound is the storage kind; identity lookups return it for missing users.
	ErrNotFound = storage.ErrNotFound
)
