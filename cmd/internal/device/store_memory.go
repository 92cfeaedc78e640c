package device

import (
	"context"
	"sort"
	"sync"
	"time"

	"sessiond/cmd/internal/storage"
)

// MemoryStore is an in-process Store for tests and single-node dev runs.
type MemoryStore struct {
	mu   sync.Mutex
	rows []Device // insertion order == creation order
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) FindByUserAgent(ctx context.Context, userID, userAgent string) (Device, error) {
	if err := ctx.Err(); err != nil {
		return Device{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.rows {
		if d.UserID == userID && d.UserAgent == userAgent {
			return d, nil
		}
	}
	return Device{}, storage.ErrNotFound
}

func (s *MemoryStore) Create(ctx context.Context, d Device) (Device, error) {
	if err := ctx.Err(); err != nil {
		return Device{}, err
	}

	d.IsActive = true
	d.LastLoginAt = d.CreatedAt
	d.UpdatedAt = d.CreatedAt

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = append(s.rows, d)
	return d, nil
}

func (s *MemoryStore) Touch(ctx context.Context, id string, now time.Time) (Device, error) {
	if err := ctx.Err(); err != nil {
		return Device{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].LastLoginAt = now
			s.rows[i].UpdatedAt = now
			s.rows[i].IsActive = true
			return s.rows[i], nil
		}
	}
	return Device{}, storage.ErrNotFound
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	var out []Device
	for _, d := range s.rows {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].LastLoginAt.After(out[j].LastLoginAt) })
	return out, nil
}

// Len returns the number of stored devices.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
