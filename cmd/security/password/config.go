package password

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Argon2idParams controls Argon2id hashing cost. MemoryKiB is in KiB.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy bounds accepted password length, in runes.
type Policy struct {
	MinLength int
	MaxLength int
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Argon2idParams
	Policy Policy
}

// DefaultConfig returns 64 MiB / 3 passes Argon2id with parallelism equal to
// the CPU count clamped to [1..4], and an 8..256 rune length policy.
func DefaultConfig() Config {
	threads := min(max(runtime.NumCPU(), 1), 4)
	return Config{
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024,
			Iterations:  3,
			Parallelism: uint8(threads), // #nosec G115 -- clamped above
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{MinLength: 8, MaxLength: 256},
	}
}

// knob is one bounded unsigned env override.
type knob struct {
	key      string
	min, max uint64
	set      func(*Config, uint64)
}

var knobs = []knob{
	{"SESSIOND_PASSWORD_MIN_LEN", 1, 1024, func(c *Config, v uint64) { c.Policy.MinLength = int(v) }},
	{"SESSIOND_PASSWORD_MAX_LEN", 1, 4096, func(c *Config, v uint64) { c.Policy.MaxLength = int(v) }},
	{"SESSIOND_ARGON2_MEMORY_KIB", 8 * 1024, 1024 * 1024, func(c *Config, v uint64) { c.Params.MemoryKiB = uint32(v) }},
	{"SESSIOND_ARGON2_ITERATIONS", 1, 20, func(c *Config, v uint64) { c.Params.Iterations = uint32(v) }},
	{"SESSIOND_ARGON2_PARALLELISM", 1, 64, func(c *Config, v uint64) { c.Params.Parallelism = uint8(v) }},
	{"SESSIOND_ARGON2_SALT_LEN", 8, 64, func(c *Config, v uint64) { c.Params.SaltLength = uint32(v) }},
	{"SESSIOND_ARGON2_KEY_LEN", 16, 64, func(c *Config, v uint64) { c.Params.KeyLength = uint32(v) }},
}

// FromEnv starts from DefaultConfig and applies every SESSIOND_PASSWORD_* and
// SESSIOND_ARGON2_* variable that is set. Out-of-range values are errors.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	for _, k := range knobs {
		raw, ok := os.LookupEnv(k.key)
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
		if err != nil {
			return Config{}, fmt.Errorf("%s: not an unsigned integer", k.key)
		}
		if v < k.min || v > k.max {
			return Config{}, fmt.Errorf("%s: out of range [%d..%d]", k.key, k.min, k.max)
		}
		k.set(&cfg, v)
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf("password policy invalid: min_len(%d) > max_len(%d)",
			cfg.Policy.MinLength, cfg.Policy.MaxLength)
	}
	return cfg, nil
}
