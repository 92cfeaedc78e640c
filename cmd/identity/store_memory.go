package identity

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and single-node dev runs.
type MemoryStore struct {
	mu         sync.Mutex
	byID       map[string]UserAuth
	byUsername map[string]string
	byEmail    map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]UserAuth),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	if in.ID == "" || in.Username == "" || in.Email == "" || in.PasswordHash == "" {
		return User{}, invalid(op, "missing field")
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[in.Username]; ok {
		return User{}, ConflictError{Op: op, Field: "username"}
	}
	if _, ok := s.byEmail[in.Email]; ok {
		return User{}, ConflictError{Op: op, Field: "email"}
	}

	u := User{ID: in.ID, Username: in.Username, Email: in.Email, CreatedAt: now}
	s.byID[in.ID] = UserAuth{User: u, PasswordHash: in.PasswordHash}
	s.byUsername[in.Username] = in.ID
	s.byEmail[in.Email] = in.ID
	return u, nil
}

func (s *MemoryStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	if err := ctx.Err(); err != nil {
		return UserAuth{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return UserAuth{}, ErrNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ua, ok := s.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return ua.User, nil
}

func (s *MemoryStore) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ua, ok := s.byID[userID]
	if !ok {
		return ErrNotFound
	}
	ua.PasswordHash = hash
	s.byID[userID] = ua
	return nil
}

// Len returns the number of stored users.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
