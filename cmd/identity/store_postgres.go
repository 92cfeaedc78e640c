package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sessiond/cmd/internal/storage"
)

// PostgresStore implements Store over PostgreSQL.
//
// Uniqueness of username and email is enforced by the uq_users_username and
// uq_users_email constraints, so two racing registrations cannot both win.
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
	st := &PostgresStore{
		pool:   pool,
		schema: storage.DefaultSchema,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, errors.New("identity: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) users() string { return storage.Ident(s.schema, "users") }

// CreateUser inserts one user row.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if s == nil || s.pool == nil {
		return User{}, invalid(op, "nil store")
	}
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

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.users()+` (id, username, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		in.ID, in.Username, in.Email, in.PasswordHash, now,
	)
	if err != nil {
		if c, ok := storage.UniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: conflictField(c)}
		}
		return User{}, storage.Wrap(op, err)
	}

	return User{
		ID:        in.ID,
		Username:  in.Username,
		Email:     in.Email,
		CreatedAt: now,
	}, nil
}

// GetUserAuthByEmail loads a user and its password hash by exact email.
func (s *PostgresStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	const op = "identity.GetUserAuthByEmail"

	if s == nil || s.pool == nil {
		return UserAuth{}, invalid(op, "nil store")
	}
	if err := ctx.Err(); err != nil {
		return UserAuth{}, err
	}

	var out UserAuth
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, created_at
		   FROM `+s.users()+`
		  WHERE email = $1`,
		email,
	).Scan(&out.ID, &out.Username, &out.Email, &out.PasswordHash, &out.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserAuth{}, ErrNotFound
		}
		return UserAuth{}, storage.Wrap(op, err)
	}
	return out, nil
}

// GetUserByID loads a user by id.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	if s == nil || s.pool == nil {
		return User{}, invalid(op, "nil store")
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	var out User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, created_at
		   FROM `+s.users()+`
		  WHERE id = $1`,
		id,
	).Scan(&out.ID, &out.Username, &out.Email, &out.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, storage.Wrap(op, err)
	}
	return out, nil
}

// UpdatePasswordHash replaces the stored hash (used for transparent rehash on login).
func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	const op = "identity.UpdatePasswordHash"

	if s == nil || s.pool == nil {
		return invalid(op, "nil store")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if userID == "" || hash == "" {
		return invalid(op, "missing field")
	}

	ct, err := s.pool.Exec(ctx,
		`UPDATE `+s.users()+` SET password_hash = $1 WHERE id = $2`,
		hash, userID,
	)
	if err != nil {
		return storage.Wrap(op, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// conflictField maps constraint names to logical fields.
func conflictField(constraint string) string {
	switch {
	case constraint == "uq_users_username", strings.Contains(constraint, "username"):
		return "username"
	case constraint == "uq_users_email", strings.Contains(constraint, "email"):
		return "email"
	default:
		return ""
	}
}
