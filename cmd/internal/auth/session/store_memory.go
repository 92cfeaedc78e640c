package session

import (
	"context"
	"sync"

	"sessiond/cmd/internal/storage"
)

// MemoryStore is an in-process Store. The mutex plays the role of the
// device-row lock.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]Row
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]Row)}
}

func (s *MemoryStore) Replace(ctx context.Context, row Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.rows {
		if r.DeviceID == row.DeviceID {
			delete(s.rows, id)
		}
	}
	row.IsValid = true
	s.rows[row.ID] = row
	return nil
}

func (s *MemoryStore) Invalidate(ctx context.Context, sessionID, tokenHash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[sessionID]
	if !ok || r.TokenHash != tokenHash || !r.IsValid {
		return false, nil
	}
	r.IsValid = false
	s.rows[sessionID] = r
	return true, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, sessionID string) (Row, error) {
	if err := ctx.Err(); err != nil {
		return Row{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[sessionID]
	if !ok {
		return Row{}, storage.ErrNotFound
	}
	return r, nil
}

// CountForDevice returns the number of session rows of a device (valid or not).
func (s *MemoryStore) CountForDevice(_ context.Context, deviceID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.rows {
		if r.DeviceID == deviceID {
			n++
		}
	}
	return n, nil
}
