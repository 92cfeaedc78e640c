package session

import (
	"context"
	"time"
)

// Row mirrors a sessions row.
type Row struct {
	ID        string
	UserID    string
	DeviceID  string
	TokenHash string
	ExpiresAt time.Time
	IsValid   bool
	CreatedAt time.Time
}

// Store abstracts persistence for session state.
type Store interface {
	// Replace atomically deletes every session of row.DeviceID and inserts row
	// (is_valid = true). Concurrent calls for one device are serialized.
	// On failure nothing changes.
	Replace(ctx context.Context, row Row) error

	// Invalidate sets is_valid = false on the row matching both id and token
	// hash, if it is still valid. It reports whether a row changed.
	Invalidate(ctx context.Context, sessionID, tokenHash string) (bool, error)

	// GetByID loads a session row; storage.ErrNotFound if absent.
	GetByID(ctx context.Context, sessionID string) (Row, error)
}
