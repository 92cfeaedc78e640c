package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"sessiond/cmd/internal/storage/pgtest"
)

// Integration tests are opt-in and require SESSIOND_DATABASE_URL.

func newPGVerifier(t *testing.T) (*Verifier, *PostgresStore) {
	t.Helper()

	pool := pgtest.Open(t)
	schema := pgtest.Schema(t, pool)

	st, err := NewPostgresStore(pool, WithSchema(schema))
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	v, err := NewVerifier(st, fastHasher(), nil)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return v, st
}

func TestPostgresStore_RegisterConflicts(t *testing.T) {
	t.Parallel()

	v, st := newPGVerifier(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	u, err := v.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.io", Password: "pw123456"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err = v.Register(ctx, RegisterInput{Username: "alice", Email: "b@x.io", Password: "pw123456"})
	if !errors.Is(err, ErrConflict) || ConflictField(err) != "username" {
		t.Fatalf("expected username conflict, got %v", err)
	}
	_, err = v.Register(ctx, RegisterInput{Username: "bob", Email: "a@x.io", Password: "pw123456"})
	if !errors.Is(err, ErrConflict) || ConflictField(err) != "email" {
		t.Fatalf("expected email conflict, got %v", err)
	}

	got, err := st.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.Username != "alice" || got.Email != "a@x.io" {
		t.Fatalf("row changed: %+v", got)
	}
}

func TestPostgresStore_Authenticate(t *testing.T) {
	t.Parallel()

	v, st := newPGVerifier(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	u, err := v.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.io", Password: "pw123456"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := v.Authenticate(ctx, "a@x.io", "pw123456")
	if err != nil || got.ID != u.ID {
		t.Fatalf("authenticate: got=%+v err=%v", got, err)
	}
	if _, err := v.Authenticate(ctx, "A@x.io", "pw123456"); !IsInvalidCredentials(err) {
		t.Fatalf("expected case-sensitive email match, got %v", err)
	}
	if _, err := st.GetUserByID(ctx, "01ARZ3NDEKTSV4RRFFQ69G5FAV"); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
