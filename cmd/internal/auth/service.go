package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sessiond/cmd/identity"
	"sessiond/cmd/internal/auth/session"
	"sessiond/cmd/internal/device"
)

const (
	resultOK                 = "ok"
	resultConflict           = "conflict"
	resultInvalidInput       = "invalid_input"
	resultInvalidCredentials = "invalid_credentials"
	resultUnauthorized       = "unauthorized"
	resultInvalidToken       = "invalid_token"
	resultNothing            = "nothing_to_invalidate"
	resultError              = "error"
)

// LoginResult is what a successful login hands back to the caller.
type LoginResult struct {
	SessionID string
	Token     string
	ExpiresAt time.Time
	User      identity.User
	Device    device.Device
}

// Principal is an authenticated caller.
type Principal struct {
	Claims session.Claims
	User   identity.User
}

// Service wires the verifier, the device resolver and the session service.
type Service struct {
	users    *identity.Verifier
	devices  *device.Resolver
	sessions *session.Service

	log     *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a Service.
func NewService(users *identity.Verifier, devices *device.Resolver, sessions *session.Service, opts ...Option) (*Service, error) {
	if users == nil || devices == nil || sessions == nil {
		return nil, errors.New("auth: missing dependency")
	}
	s := &Service{
		users:    users,
		devices:  devices,
		sessions: sessions,
		log:      slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Register creates an account.
func (s *Service) Register(ctx context.Context, username, email, password string) (identity.User, error) {
	u, err := s.users.Register(ctx, identity.RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
		Now:      s.now(),
	})
	switch {
	case err == nil:
		s.metrics.registration(resultOK)
		s.log.Info("auth.register.ok", "user_id", u.ID)
	case identity.IsConflict(err):
		s.metrics.registration(resultConflict)
		s.log.Info("auth.register.conflict", "field", identity.ConflictField(err))
	case identity.IsInvalidInput(err):
		s.metrics.registration(resultInvalidInput)
	default:
		s.metrics.registration(resultError)
		s.log.Error("auth.register.fail", "err", err)
	}
	return u, err
}

// Login verifies credentials, resolves the device and issues the device's
// only valid session. Any failure after the credential check leaves the
// device's previous session intact.
func (s *Service) Login(ctx context.Context, email, password, userAgent, remoteHint string) (LoginResult, error) {
	started := time.Now()

	u, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		if identity.IsInvalidCredentials(err) {
			s.metrics.login(resultInvalidCredentials, started)
			s.log.Info("auth.login.invalid_credentials")
		} else {
			s.metrics.login(resultError, started)
			s.log.Error("auth.login.authenticate.fail", "err", err)
		}
		return LoginResult{}, err
	}

	now := s.now()
	d, err := s.devices.Resolve(ctx, now, u.ID, userAgent, remoteHint)
	if err != nil {
		s.metrics.login(resultError, started)
		s.log.Error("auth.login.resolve_device.fail", "user_id", u.ID, "err", err)
		return LoginResult{}, err
	}

	iss, err := s.sessions.IssueSession(ctx, now, u.ID, d.ID)
	if err != nil {
		s.metrics.login(resultError, started)
		s.log.Error("auth.login.issue_session.fail", "user_id", u.ID, "device_id", d.ID, "err", err)
		return LoginResult{}, err
	}

	s.metrics.login(resultOK, started)
	s.log.Info("auth.login.ok",
		"user_id", u.ID,
		"device_id", d.ID,
		"session_id", iss.SessionID,
		"device_class", string(d.Class),
	)
	return LoginResult{
		SessionID: iss.SessionID,
		Token:     iss.Token,
		ExpiresAt: iss.ExpiresAt,
		User:      u,
		Device:    d,
	}, nil
}

// Logout invalidates the session behind bearer. See session.Service.Logout
// for the error contract; session.ErrNothingToInvalidate is not a failure.
func (s *Service) Logout(ctx context.Context, bearer string) error {
	err := s.sessions.Logout(ctx, s.now(), bearer)
	switch {
	case err == nil:
		s.metrics.logout(resultOK)
		s.log.Info("auth.logout.ok")
	case errors.Is(err, session.ErrNothingToInvalidate):
		s.metrics.logout(resultNothing)
		s.log.Info("auth.logout.nothing_to_invalidate")
	case errors.Is(err, session.ErrUnauthorized):
		s.metrics.logout(resultUnauthorized)
	case errors.Is(err, session.ErrInvalidToken):
		s.metrics.logout(resultInvalidToken)
	default:
		s.metrics.logout(resultError)
		s.log.Error("auth.logout.fail", "err", err)
	}
	return err
}

// Authenticate resolves bearer to its session claims and user.
func (s *Service) Authenticate(ctx context.Context, bearer string) (Principal, error) {
	claims, err := s.sessions.Validate(ctx, s.now(), bearer)
	if err != nil {
		return Principal{}, err
	}
	u, err := s.users.User(ctx, claims.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			return Principal{}, session.ErrInvalidToken
		}
		return Principal{}, err
	}
	return Principal{Claims: claims, User: u}, nil
}

// Devices lists the user's devices, most recently used first.
func (s *Service) Devices(ctx context.Context, userID string) ([]device.Device, error) {
	return s.devices.List(ctx, userID)
}

// DescribeClient reports what a login from this client would record, without persisting it.
func (s *Service) DescribeClient(ctx context.Context, userAgent, remoteHint string) device.Info {
	return s.devices.Describe(ctx, userAgent, remoteHint)
}
