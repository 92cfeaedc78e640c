package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type jwtClaims struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	DeviceID  string `json:"deviceId"`
	jwt.RegisteredClaims
}

type jwtCodec struct {
	secret []byte
	issuer string
}

func newJWTCodec(cfg Config) *jwtCodec {
	k := make([]byte, len(cfg.Secret))
	copy(k, cfg.Secret)
	return &jwtCodec{secret: k, issuer: cfg.Issuer}
}

func (c *jwtCodec) Sign(cl Claims, expiresAt time.Time) (string, error) {
	if !cl.complete() {
		return "", errors.New("session: incomplete claims")
	}

	iat := cl.IssuedAt
	if iat.IsZero() {
		iat = time.Now()
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		SessionID: cl.SessionID,
		UserID:    cl.UserID,
		DeviceID:  cl.DeviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	return tok.SignedString(c.secret)
}

func (c *jwtCodec) Verify(raw string, now time.Time) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	var parsed jwtClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{
		SessionID: parsed.SessionID,
		UserID:    parsed.UserID,
		DeviceID:  parsed.DeviceID,
	}
	if parsed.ExpiresAt != nil {
		out.ExpiresAt = parsed.ExpiresAt.Time
	}
	if parsed.IssuedAt != nil {
		out.IssuedAt = parsed.IssuedAt.Time
	}
	if !out.complete() || expired(out.ExpiresAt, now) {
		return Claims{}, ErrInvalidToken
	}
	return out, nil
}
