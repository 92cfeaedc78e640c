package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sessiond/cmd/security/password"
)

// dummyPassword is hashed once at startup; Authenticate verifies against it
// when the email is unknown so both failure paths do the same work.
const dummyPassword = "sessiond-dummy-password-for-timing"

// RegisterInput is a registration request as received from the boundary.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Now      time.Time
}

// Verifier registers users and checks credentials.
type Verifier struct {
	store     Store
	hasher    PasswordHasher
	log       *slog.Logger
	dummyHash string
}

// NewVerifier wires a Verifier. log may be nil.
func NewVerifier(store Store, hasher PasswordHasher, log *slog.Logger) (*Verifier, error) {
	if store == nil {
		return nil, errors.New("identity: nil store")
	}
	if hasher == nil {
		return nil, errors.New("identity: nil password hasher")
	}
	if log == nil {
		log = slog.Default()
	}

	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, err
	}
	return &Verifier{store: store, hasher: hasher, log: log, dummyHash: dummy}, nil
}

// Register creates a user with a freshly hashed password.
// A taken username or email yields ConflictError and leaves the existing row untouched.
func (v *Verifier) Register(ctx context.Context, in RegisterInput) (User, error) {
	const op = "identity.Register"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	username := NormalizeUsername(in.Username)
	email := NormalizeEmail(in.Email)
	switch {
	case username == "":
		return User{}, invalid(op, "username is required")
	case email == "":
		return User{}, invalid(op, "email is required")
	case in.Password == "":
		return User{}, invalid(op, "password is required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	hash, err := v.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooShort) || errors.Is(err, password.ErrPasswordTooLong) {
			return User{}, invalid(op, err.Error())
		}
		return User{}, err
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	return v.store.CreateUser(ctx, CreateUserInput{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Now:          now,
	})
}

// Authenticate checks email + password. Unknown email and wrong password
// both return ErrInvalidCredentials; storage failures propagate.
func (v *Verifier) Authenticate(ctx context.Context, emailRaw, pw string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	email := NormalizeEmail(emailRaw)
	if email == "" || pw == "" {
		_, _ = v.hasher.Verify(v.dummyHash, dummyPassword)
		return User{}, badCredentials()
	}

	ua, err := v.store.GetUserAuthByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			_, _ = v.hasher.Verify(v.dummyHash, pw)
			return User{}, badCredentials()
		}
		return User{}, err
	}

	ok, err := v.hasher.Verify(ua.PasswordHash, pw)
	if err != nil {
		v.log.Warn("identity.authenticate.bad_hash", "user_id", ua.ID, "err", err)
		return User{}, badCredentials()
	}
	if !ok {
		return User{}, badCredentials()
	}

	v.maybeRehash(ctx, ua, pw)
	return ua.User, nil
}

// maybeRehash upgrades legacy or outdated hashes after a successful check.
// Failure is logged and never fails the login.
func (v *Verifier) maybeRehash(ctx context.Context, ua UserAuth, pw string) {
	rh, ok := v.hasher.(rehasher)
	if !ok || !rh.NeedsRehash(ua.PasswordHash) {
		return
	}
	hash, err := v.hasher.Hash(pw)
	if err != nil {
		v.log.Warn("identity.rehash.fail", "user_id", ua.ID, "err", err)
		return
	}
	if err := v.store.UpdatePasswordHash(ctx, ua.ID, hash); err != nil {
		v.log.Warn("identity.rehash.fail", "user_id", ua.ID, "err", err)
		return
	}
	v.log.Info("identity.rehash.ok", "user_id", ua.ID)
}

// User loads a user by id.
func (v *Verifier) User(ctx context.Context, id string) (User, error) {
	return v.store.GetUserByID(ctx, id)
}
