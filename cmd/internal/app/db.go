package app

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sessiond/cmd/internal/storage"
)

// NewDBPool builds a pgxpool with sane defaults and validates connectivity.
// With cfg.AutoMigrate it also applies the embedded schema.
func NewDBPool(ctx context.Context, cfg Config, log Logger) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if cfg.DBMaxConns > 0 {
		pcfg.MaxConns = cfg.DBMaxConns
	}
	if cfg.DBMinConns >= 0 {
		pcfg.MinConns = cfg.DBMinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	if err := PingDB(ctx, pool, 3*time.Second); err != nil {
		pool.Close()
		return nil, err
	}

	if cfg.AutoMigrate {
		mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := storage.Migrate(mctx, pool, cfg.DBSchema); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("db.migrate.ok", "schema", cfg.DBSchema)
	}

	return pool, nil
}

// PingDB checks if we can acquire a connection within timeout.
func PingDB(parent context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	conn.Release()
	return nil
}
