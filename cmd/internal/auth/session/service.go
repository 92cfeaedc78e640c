package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"sessiond/cmd/internal/storage"
	"sessiond/cmd/security/token"
)

// maxTokenLen rejects pathological bearer strings before any crypto runs.
const maxTokenLen = 4096

// Service implements the session operations.
type Service struct {
	cfg    Config
	codec  TokenCodec
	store  Store
	hasher token.Hasher
	log    *slog.Logger
}

// Issued is the result of issuing a session.
type Issued struct {
	SessionID string
	Token     string
	ExpiresAt time.Time
}

// NewService wires a Service. log may be nil.
func NewService(cfg Config, store Store, codec TokenCodec, hasher token.Hasher, log *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("session: nil store")
	}
	if codec == nil {
		return nil, errors.New("session: nil token codec")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{cfg: cfg, codec: codec, store: store, hasher: hasher, log: log}, nil
}

// IssueSession creates the single valid session of deviceID and returns its token.
//
// The token is signed before any write; the replace itself is one transaction,
// so a failure leaves the device's previous session untouched.
func (s *Service) IssueSession(ctx context.Context, now time.Time, userID, deviceID string) (Issued, error) {
	if err := ctx.Err(); err != nil {
		return Issued{}, err
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(deviceID) == "" {
		return Issued{}, errors.New("session: missing user or device id")
	}

	// Token and row carry the same second-precision expiry.
	now = now.UTC().Truncate(time.Second)
	exp := now.Add(SessionTTL)
	sid := uuid.NewString()

	tok, err := s.codec.Sign(Claims{
		SessionID: sid,
		UserID:    userID,
		DeviceID:  deviceID,
		IssuedAt:  now,
	}, exp)
	if err != nil {
		return Issued{}, err
	}

	err = s.store.Replace(ctx, Row{
		ID:        sid,
		UserID:    userID,
		DeviceID:  deviceID,
		TokenHash: s.hasher.Hex(tok),
		ExpiresAt: exp,
		IsValid:   true,
		CreatedAt: now,
	})
	if err != nil {
		return Issued{}, err
	}

	return Issued{SessionID: sid, Token: tok, ExpiresAt: exp}, nil
}

// Logout invalidates the session behind bearer.
//
// Returns ErrUnauthorized for an empty token, ErrInvalidToken when the token
// does not verify, and ErrNothingToInvalidate when no valid row matched.
func (s *Service) Logout(ctx context.Context, now time.Time, bearer string) error {
	bearer = strings.TrimSpace(bearer)
	claims, err := s.verify(bearer, now)
	if err != nil {
		return err
	}
	if claims.SessionID == "" {
		return ErrInvalidToken
	}

	changed, err := s.store.Invalidate(ctx, claims.SessionID, s.hasher.Hex(bearer))
	if err != nil {
		return err
	}
	if !changed {
		return ErrNothingToInvalidate
	}
	return nil
}

// Validate verifies bearer and checks the server-side row: it must exist,
// match the token, still be valid and not be past its expiry.
func (s *Service) Validate(ctx context.Context, now time.Time, bearer string) (Claims, error) {
	bearer = strings.TrimSpace(bearer)
	claims, err := s.verify(bearer, now)
	if err != nil {
		return Claims{}, err
	}

	row, err := s.store.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) && !storage.IsStorage(err) {
			// Deleted by a newer login on the same device.
			return Claims{}, ErrSessionRevoked
		}
		return Claims{}, err
	}

	if row.UserID != claims.UserID || row.DeviceID != claims.DeviceID ||
		!token.Equal(row.TokenHash, s.hasher.Hex(bearer)) {
		return Claims{}, ErrInvalidToken
	}
	if !row.IsValid {
		return Claims{}, ErrSessionRevoked
	}
	if expired(row.ExpiresAt, now) {
		return Claims{}, ErrSessionExpired
	}
	return claims, nil
}

func (s *Service) verify(bearer string, now time.Time) (Claims, error) {
	if bearer == "" {
		return Claims{}, ErrUnauthorized
	}
	if len(bearer) > maxTokenLen {
		return Claims{}, ErrInvalidToken
	}
	return s.codec.Verify(bearer, now)
}
