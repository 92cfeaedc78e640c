package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
)

const (
	// HMACEnvKey is the env var name for the token HMAC secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	HMACEnvKey = "SESSIOND_TOKEN_HMAC_KEY"
)

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashHMACSHA256Hex returns an HMAC-SHA256 hex digest of s using key.
func HashHMACSHA256Hex(s string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return hex.EncodeToString(m.Sum(nil))
}

// HMACKeyFromEnv returns the configured HMAC key bytes (trimmed), enforcing a minimum byte length.
// If the env var is missing/blank -> ErrHMACKeyMissing.
// If too short -> ErrHMACKeyTooShort.
func HMACKeyFromEnv(minBytes int) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(HMACEnvKey))
	if raw == "" {
		return nil, ErrHMACKeyMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrHMACKeyTooShort
	}
	return b, nil
}

// Hasher digests session tokens for storage. The zero value hashes with SHA-256.
type Hasher struct {
	key []byte
}

// NewHasher returns a Hasher using HMAC-SHA256 when key is non-empty.
func NewHasher(key []byte) Hasher {
	if len(key) == 0 {
		return Hasher{}
	}
	k := make([]byte, len(key))
	copy(k, key)
	return Hasher{key: k}
}

// HasherFromEnv builds a Hasher from SESSIOND_TOKEN_HMAC_KEY.
// A missing key yields SHA-256 mode; a present key shorter than minBytes is an error.
func HasherFromEnv(minBytes int) (Hasher, error) {
	key, err := HMACKeyFromEnv(minBytes)
	switch {
	case err == nil:
		return NewHasher(key), nil
	case err == ErrHMACKeyMissing:
		return Hasher{}, nil
	default:
		return Hasher{}, err
	}
}

// Keyed reports whether the hasher runs in HMAC mode.
func (h Hasher) Keyed() bool { return len(h.key) > 0 }

// Hex returns the storage digest of tok.
func (h Hasher) Hex(tok string) string {
	if len(h.key) == 0 {
		return HashSHA256Hex(tok)
	}
	return HashHMACSHA256Hex(tok, h.key)
}

// Equal compares two hex digests in constant time.
func Equal(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
