package device

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sessiond/cmd/internal/storage"
)

// PostgresStore implements Store over PostgreSQL.
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
		return nil, errors.New("device: nil pool")
	}
	return st, nil
}

const deviceColumns = `id, user_id, device_class, user_agent, ip_address, location,
		        is_active, last_login_at, created_at, updated_at`

func scanDevice(row pgx.Row) (Device, error) {
	var d Device
	var class string
	err := row.Scan(&d.ID, &d.UserID, &class, &d.UserAgent, &d.IP, &d.Location,
		&d.IsActive, &d.LastLoginAt, &d.CreatedAt, &d.UpdatedAt)
	d.Class = Class(class)
	return d, err
}

func (s *PostgresStore) devices() string { return storage.Ident(s.schema, "devices") }

func (s *PostgresStore) FindByUserAgent(ctx context.Context, userID, userAgent string) (Device, error) {
	const op = "device.FindByUserAgent"

	if s == nil || s.pool == nil {
		return Device{}, errors.New(op + ": nil store")
	}
	if err := ctx.Err(); err != nil {
		return Device{}, err
	}

	d, err := scanDevice(s.pool.QueryRow(ctx,
		`SELECT `+deviceColumns+`
		   FROM `+s.devices()+`
		  WHERE user_id = $1 AND user_agent = $2
		  ORDER BY created_at, id
		  LIMIT 1`,
		userID, userAgent,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Device{}, storage.ErrNotFound
		}
		return Device{}, storage.Wrap(op, err)
	}
	return d, nil
}

func (s *PostgresStore) Create(ctx context.Context, d Device) (Device, error) {
	const op = "device.Create"

	if s == nil || s.pool == nil {
		return Device{}, errors.New(op + ": nil store")
	}
	if err := ctx.Err(); err != nil {
		return Device{}, err
	}

	out, err := scanDevice(s.pool.QueryRow(ctx,
		`INSERT INTO `+s.devices()+` (
		     id, user_id, device_class, user_agent, ip_address, location,
		     is_active, last_login_at, created_at, updated_at
		   ) VALUES ($1, $2, $3, $4, $5, $6, true, $7, $7, $7)
		 RETURNING `+deviceColumns,
		d.ID, d.UserID, string(d.Class), d.UserAgent, d.IP, d.Location, d.CreatedAt,
	))
	if err != nil {
		if storage.ForeignKeyViolation(err) {
			return Device{}, storage.ErrNotFound
		}
		return Device{}, storage.Wrap(op, err)
	}
	return out, nil
}

func (s *PostgresStore) Touch(ctx context.Context, id string, now time.Time) (Device, error) {
	const op = "device.Touch"

	if s == nil || s.pool == nil {
		return Device{}, errors.New(op + ": nil store")
	}
	if err := ctx.Err(); err != nil {
		return Device{}, err
	}

	d, err := scanDevice(s.pool.QueryRow(ctx,
		`UPDATE `+s.devices()+`
		    SET last_login_at = $1,
		        updated_at = $1,
		        is_active = true
		  WHERE id = $2
		 RETURNING `+deviceColumns,
		now, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Device{}, storage.ErrNotFound
		}
		return Device{}, storage.Wrap(op, err)
	}
	return d, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Device, error) {
	const op = "device.ListByUser"

	if s == nil || s.pool == nil {
		return nil, errors.New(op + ": nil store")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+deviceColumns+`
		   FROM `+s.devices()+`
		  WHERE user_id = $1
		  ORDER BY last_login_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, storage.Wrap(op, err)
	}
	defer rows.Close()

	var out []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, storage.Wrap(op, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Wrap(op, err)
	}
	return out, nil
}
