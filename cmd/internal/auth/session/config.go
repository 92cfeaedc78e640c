package session

import (
	"os"
	"strings"
	"time"
)

// SessionTTL is the fixed lifetime of every session and its token.
const SessionTTL = 7 * 24 * time.Hour

// MinSecretBytes is the shortest accepted signing secret.
const MinSecretBytes = 32

// TokenFormat selects the bearer token encoding.
type TokenFormat string

const (
	// FormatJWT is a compact JWS signed with HMAC-SHA256.
	FormatJWT TokenFormat = "jwt"
	// FormatPaseto is a PASETO v4.local token.
	FormatPaseto TokenFormat = "paseto"
)

// Config defines runtime configuration for the session subsystem.
type Config struct {
	// Issuer is the "iss" claim of every token.
	Issuer string

	// Format selects the token codec.
	Format TokenFormat

	// Secret keys the token codec. Loaded once at startup and never logged.
	Secret []byte
}

// DefaultConfig returns defaults without a secret.
func DefaultConfig() Config {
	return Config{
		Issuer: "sessiond",
		Format: FormatJWT,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - SESSIOND_TOKEN_SECRET (at least MinSecretBytes bytes)
//
// Optional:
//   - SESSIOND_TOKEN_FORMAT ("jwt" or "paseto")
//   - SESSIOND_TOKEN_ISSUER
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("SESSIOND_TOKEN_ISSUER")); v != "" {
		cfg.Issuer = v
	}

	if v := strings.TrimSpace(os.Getenv("SESSIOND_TOKEN_FORMAT")); v != "" {
		f := TokenFormat(strings.ToLower(v))
		if f != FormatJWT && f != FormatPaseto {
			return Config{}, ErrConfig
		}
		cfg.Format = f
	}

	secret := strings.TrimSpace(os.Getenv("SESSIOND_TOKEN_SECRET"))
	if len(secret) < MinSecretBytes {
		return Config{}, ErrConfig
	}
	cfg.Secret = []byte(secret)

	return cfg, nil
}
