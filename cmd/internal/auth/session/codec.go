package session

import (
	"fmt"
	"time"
)

// Claims is the payload carried by every session token.
type Claims struct {
	SessionID string
	UserID    string
	DeviceID  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (c Claims) complete() bool {
	return c.SessionID != "" && c.UserID != "" && c.DeviceID != ""
}

// TokenCodec signs and verifies session tokens.
//
// Verify checks the signature before reading any claim, and returns
// ErrInvalidToken when now is at or after the expiry.
type TokenCodec interface {
	Sign(c Claims, expiresAt time.Time) (string, error)
	Verify(token string, now time.Time) (Claims, error)
}

// NewTokenCodec builds the codec selected by cfg.Format.
func NewTokenCodec(cfg Config) (TokenCodec, error) {
	if len(cfg.Secret) < MinSecretBytes {
		return nil, ErrConfig
	}
	switch cfg.Format {
	case FormatJWT, "":
		return newJWTCodec(cfg), nil
	case FormatPaseto:
		return newPasetoV4LocalCodec(cfg)
	default:
		return nil, fmt.Errorf("%w: token format %q", ErrConfig, cfg.Format)
	}
}

// expired is the shared boundary rule: the exact expiry instant is expired.
func expired(exp, now time.Time) bool {
	return exp.IsZero() || !now.Before(exp)
}
