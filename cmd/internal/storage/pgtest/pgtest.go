// Package pgtest opens throwaway Postgres schemas for integration tests.
//
// Tests are opt-in: they skip unless SESSIOND_DATABASE_URL is set. Outside CI
// an unreachable database also skips, to keep local runs fast.
package pgtest

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"sessiond/cmd/internal/storage"
)

// EnvDatabaseURL names the env var that enables integration tests.
const EnvDatabaseURL = "SESSIOND_DATABASE_URL"

// Open returns a pool for SESSIOND_DATABASE_URL, closed on test cleanup.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv(EnvDatabaseURL))
	if raw == "" {
		t.Skipf("integration test skipped: %s is not set", EnvDatabaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse %s: %v", EnvDatabaseURL, err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer pingCancel()

	c, err := pool.Acquire(pingCtx)
	if err != nil {
		pool.Close()
		if ShouldSkip(err) {
			t.Skipf("integration test skipped: Postgres unreachable: %v", err)
		}
		t.Fatalf("acquire: %v", err)
	}
	c.Release()

	t.Cleanup(pool.Close)
	return pool
}

// Schema creates a migrated, uniquely named schema and drops it on cleanup.
func Schema(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()

	schema := "sessiond_it_" + strings.ToLower(ulid.Make().String())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := storage.Migrate(ctx, pool, schema); err != nil {
		t.Fatalf("migrate %s: %v", schema, err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = pool.Exec(ctx, `DROP SCHEMA IF EXISTS `+pgx.Identifier{schema}.Sanitize()+` CASCADE`)
	})
	return schema
}

// Exec runs sql and fails the test on error.
func Exec(t *testing.T, pool *pgxpool.Pool, sql string, args ...any) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := pool.Exec(ctx, sql, args...); err != nil {
		t.Fatalf("exec failed: %v", err)
	}
}

// ShouldSkip reports whether err looks like an unreachable database on a dev machine.
func ShouldSkip(err error) bool {
	if err == nil {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "no such host")
}
