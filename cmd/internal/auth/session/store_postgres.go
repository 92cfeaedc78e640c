package session

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sessiond/cmd/internal/storage"
)

// PostgresStore implements Store over PostgreSQL.
//
// Replace runs in one transaction that first locks the device row
// (SELECT ... FOR UPDATE). Two logins on the same device queue on that lock,
// so the delete-then-insert pairs never interleave. The uq_sessions_device_id
// constraint backs this up.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

// WithSchema sets the Postgres schema used by the store (default "sessiond").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		checked, err := storage.CheckSchema(schema)
		if err != nil {
			return err
		}
		s.schema = checked
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: storage.DefaultSchema}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, errors.New("session: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) Replace(ctx context.Context, row Row) error {
	const op = "session.Replace"

	if s == nil || s.pool == nil {
		return errors.New(op + ": nil store")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sessions := storage.Ident(s.schema, "sessions")
	devices := storage.Ident(s.schema, "devices")

	tx, err := s.pool.BeginTx(ctx, storage.ReadWriteTx)
	if err != nil {
		return storage.Wrap(op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked string
	err = tx.QueryRow(ctx,
		`SELECT id FROM `+devices+` WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		row.DeviceID, row.UserID,
	).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Wrap(op, storage.ErrNotFound)
		}
		return storage.Wrap(op, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM `+sessions+` WHERE device_id = $1`, row.DeviceID); err != nil {
		return storage.Wrap(op, err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO `+sessions+` (id, user_id, device_id, token_hash, expires_at, is_valid, created_at)
		 VALUES ($1, $2, $3, $4, $5, true, $6)`,
		row.ID, row.UserID, row.DeviceID, row.TokenHash, row.ExpiresAt, row.CreatedAt,
	)
	if err != nil {
		return storage.Wrap(op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.Wrap(op, err)
	}
	return nil
}

func (s *PostgresStore) Invalidate(ctx context.Context, sessionID, tokenHash string) (bool, error) {
	const op = "session.Invalidate"

	if s == nil || s.pool == nil {
		return false, errors.New(op + ": nil store")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	ct, err := s.pool.Exec(ctx,
		`UPDATE `+storage.Ident(s.schema, "sessions")+`
		    SET is_valid = false
		  WHERE id = $1
		    AND token_hash = $2
		    AND is_valid`,
		sessionID, tokenHash,
	)
	if err != nil {
		return false, storage.Wrap(op, err)
	}
	return ct.RowsAffected() > 0, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, sessionID string) (Row, error) {
	const op = "session.GetByID"

	if s == nil || s.pool == nil {
		return Row{}, errors.New(op + ": nil store")
	}
	if err := ctx.Err(); err != nil {
		return Row{}, err
	}

	var r Row
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, device_id, token_hash, expires_at, is_valid, created_at
		   FROM `+storage.Ident(s.schema, "sessions")+`
		  WHERE id = $1`,
		sessionID,
	).Scan(&r.ID, &r.UserID, &r.DeviceID, &r.TokenHash, &r.ExpiresAt, &r.IsValid, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Row{}, storage.ErrNotFound
		}
		return Row{}, storage.Wrap(op, err)
	}
	return r, nil
}

// CountForDevice returns the number of session rows of a device (valid or not).
func (s *PostgresStore) CountForDevice(ctx context.Context, deviceID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM `+storage.Ident(s.schema, "sessions")+` WHERE device_id = $1`,
		deviceID,
	).Scan(&n)
	if err != nil {
		return 0, storage.Wrap("session.CountForDevice", err)
	}
	return n, nil
}
