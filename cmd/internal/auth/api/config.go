package authapi

import (
	"os"
	"strconv"
	"strings"
)

// Config controls auth API behavior and security defaults.
type Config struct {
	TrustProxy   bool
	MaxBodyBytes int64
}

// DefaultConfig returns the values LoadConfigFromEnv falls back to.
func DefaultConfig() Config {
	return Config{
		TrustProxy:   false,
		MaxBodyBytes: 1 << 20, // 1 MiB
	}
}

// LoadConfigFromEnv loads auth config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	def := DefaultConfig()
	cfg := Config{
		TrustProxy:   envBool("SESSIOND_AUTH_TRUST_PROXY", def.TrustProxy),
		MaxBodyBytes: envInt64("SESSIOND_AUTH_MAX_BODY_BYTES", def.MaxBodyBytes),
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	return cfg
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
