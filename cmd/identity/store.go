package identity

import (
	"context"
	"time"
)

// User is the registered account. Immutable after registration apart from
// the password hash.
type User struct {
	ID        string
	Username  string
	Email     string
	CreatedAt time.Time
}

// UserAuth is a user together with its stored password hash.
// It never leaves the identity package boundary in API responses.
type UserAuth struct {
	User
	PasswordHash string
}

// CreateUserInput is a fully validated insert. PasswordHash is already encoded.
type CreateUserInput struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Now          time.Time
}

// Store is the user persistence boundary.
//
// CreateUser returns ConflictError when the username or the email is taken.
// Lookups return ErrNotFound for missing rows. Any other failure is a
// storage.Error.
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
	GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
}

// PasswordHasher hashes and verifies passwords. password.Config implements it.
//
// Verify returns (false, nil) on mismatch and an error only for a malformed hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encodedHash, password string) (bool, error)
}

// rehasher is implemented by hashers that can tell an outdated hash apart.
type rehasher interface {
	NeedsRehash(encodedHash string) bool
}
