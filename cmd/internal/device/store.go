package device

import (
	"context"
	"time"
)

// Device is one (user, user-agent) pair the user has logged in from.
type Device struct {
	ID          string
	UserID      string
	Class       Class
	UserAgent   string
	IP          string
	Location    string
	IsActive    bool
	LastLoginAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store is the device persistence boundary.
//
// FindByUserAgent returns storage.ErrNotFound when no row matches; with
// duplicates it returns the oldest. Touch sets last_login_at, updated_at
// and is_active=true and returns the refreshed row.
type Store interface {
	FindByUserAgent(ctx context.Context, userID, userAgent string) (Device, error)
	Create(ctx context.Context, d Device) (Device, error)
	Touch(ctx context.Context, id string, now time.Time) (Device, error)
	ListByUser(ctx context.Context, userID string) ([]Device, error)
}
