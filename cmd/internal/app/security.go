package app

import (
	"errors"
	"fmt"

	"sessiond/cmd/security/token"
)

// minHMACKeyBytes is the shortest accepted SESSIOND_TOKEN_HMAC_KEY.
const minHMACKeyBytes = 32

// tokenHasher builds the session digest hasher and enforces the HMAC policy.
// Startup fails rather than silently falling back to plain SHA-256.
func tokenHasher(cfg Config) (token.Hasher, error) {
	h, err := token.HasherFromEnv(minHMACKeyBytes)
	if err != nil {
		if errors.Is(err, token.ErrHMACKeyTooShort) {
			return token.Hasher{}, fmt.Errorf("security policy: %s is too short (min %d bytes)", token.HMACEnvKey, minHMACKeyBytes)
		}
		return token.Hasher{}, err
	}
	if cfg.RequireTokenHMAC && !h.Keyed() {
		return token.Hasher{}, fmt.Errorf("security policy: SESSIOND_REQUIRE_TOKEN_HMAC=true but %s is missing", token.HMACEnvKey)
	}
	return h, nil
}
