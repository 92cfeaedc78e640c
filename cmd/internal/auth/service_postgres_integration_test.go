package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"sessiond/cmd/identity"
	"sessiond/cmd/internal/auth/session"
	"sessiond/cmd/internal/device"
	"sessiond/cmd/internal/storage"
	"sessiond/cmd/internal/storage/pgtest"
	"sessiond/cmd/security/password"
	"sessiond/cmd/security/token"
)

func TestPostgres_AliceScenario(t *testing.T) {
	t.Parallel()

	pool := pgtest.Open(t)
	schema := pgtest.Schema(t, pool)

	idStore, err := identity.NewPostgresStore(pool, identity.WithSchema(schema))
	if err != nil {
		t.Fatalf("identity.NewPostgresStore: %v", err)
	}
	devStore, err := device.NewPostgresStore(pool, device.WithSchema(schema))
	if err != nil {
		t.Fatalf("device.NewPostgresStore: %v", err)
	}
	sessStore, err := session.NewPostgresStore(pool, session.WithSchema(schema))
	if err != nil {
		t.Fatalf("session.NewPostgresStore: %v", err)
	}

	pw := password.DefaultConfig()
	pw.Params.MemoryKiB = 8 * 1024
	pw.Params.Iterations = 1
	pw.Params.Parallelism = 1
	users, err := identity.NewVerifier(idStore, pw, nil)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	resolver, err := device.NewResolver(devStore, fixedIP("203.0.113.7"), fixedGeo{Region: "Ontario", Country: "Canada"}, nil)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	cfg := session.DefaultConfig()
	cfg.Secret = []byte(testSecret)
	codec, err := session.NewTokenCodec(cfg)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	sessions, err := session.NewService(cfg, sessStore, codec, token.Hasher{}, nil)
	if err != nil {
		t.Fatalf("session.NewService: %v", err)
	}
	svc, err := NewService(users, resolver, sessions)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := svc.Register(ctx, "alice", "alice@example.com", "pw123456"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "again@example.com", "pw123456"); !identity.IsConflict(err) {
		t.Fatalf("duplicate Register: expected conflict, got %v", err)
	}

	first, err := svc.Login(ctx, "alice@example.com", "pw123456", iphoneUA, "")
	if err != nil {
		t.Fatalf("Login #1: %v", err)
	}
	second, err := svc.Login(ctx, "alice@example.com", "pw123456", iphoneUA, "")
	if err != nil {
		t.Fatalf("Login #2: %v", err)
	}
	if first.Device.ID != second.Device.ID {
		t.Fatalf("expected the same device for the same user agent")
	}
	n, err := sessStore.CountForDevice(ctx, first.Device.ID)
	if err != nil {
		t.Fatalf("CountForDevice: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one session row for the device, got %d", n)
	}

	if err := svc.Logout(ctx, first.Token); !errors.Is(err, session.ErrNothingToInvalidate) {
		t.Fatalf("superseded Logout: expected ErrNothingToInvalidate, got %v", err)
	}
	if err := svc.Logout(ctx, second.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := svc.Logout(ctx, second.Token); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second Logout: expected not-found kind, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, second.Token); !errors.Is(err, session.ErrSessionRevoked) {
		t.Fatalf("Authenticate after logout: expected ErrSessionRevoked, got %v", err)
	}
}
