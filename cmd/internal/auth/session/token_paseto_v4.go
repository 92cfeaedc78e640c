package session

import (
	"crypto/sha256"
	"errors"
	"io"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"golang.org/x/crypto/hkdf"
)

const pasetoKeyInfo = "sessiond paseto v4.local key"

type pasetoV4LocalCodec struct {
	issuer string
	key    paseto.V4SymmetricKey
}

// newPasetoV4LocalCodec derives a 32-byte v4.local key from the configured
// secret with HKDF-SHA256, so the same secret can drive either format.
func newPasetoV4LocalCodec(cfg Config) (*pasetoV4LocalCodec, error) {
	raw := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, cfg.Secret, nil, []byte(pasetoKeyInfo)), raw); err != nil {
		return nil, ErrConfig
	}
	key, err := paseto.V4SymmetricKeyFromBytes(raw)
	if err != nil {
		return nil, ErrConfig
	}
	return &pasetoV4LocalCodec{issuer: cfg.Issuer, key: key}, nil
}

func (c *pasetoV4LocalCodec) Sign(cl Claims, expiresAt time.Time) (string, error) {
	if !cl.complete() {
		return "", errors.New("session: incomplete claims")
	}

	iat := cl.IssuedAt
	if iat.IsZero() {
		iat = time.Now()
	}

	tok := paseto.NewToken()
	tok.SetIssuer(c.issuer)
	tok.SetIssuedAt(iat)
	tok.SetNotBefore(iat)
	tok.SetExpiration(expiresAt)

	if err := tok.Set("sessionId", cl.SessionID); err != nil {
		return "", err
	}
	if err := tok.Set("userId", cl.UserID); err != nil {
		return "", err
	}
	if err := tok.Set("deviceId", cl.DeviceID); err != nil {
		return "", err
	}

	return tok.V4Encrypt(c.key, nil), nil
}

func (c *pasetoV4LocalCodec) Verify(raw string, now time.Time) (Claims, error) {
	// Expiry is checked against the caller's clock, not the wall clock.
	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.IssuedBy(c.issuer))
	p.AddRule(paseto.ValidAt(now))

	parsed, err := p.ParseV4Local(c.key, raw, nil)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	exp, err := parsed.GetExpiration()
	if err != nil || expired(exp, now) {
		return Claims{}, ErrInvalidToken
	}
	iat, _ := parsed.GetIssuedAt()

	sid, _ := parsed.GetString("sessionId")
	uid, _ := parsed.GetString("userId")
	did, _ := parsed.GetString("deviceId")

	out := Claims{SessionID: sid, UserID: uid, DeviceID: did, IssuedAt: iat, ExpiresAt: exp}
	if !out.complete() {
		return Claims{}, ErrInvalidToken
	}
	return out, nil
}
