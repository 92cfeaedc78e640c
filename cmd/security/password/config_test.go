package password

import (
	"os"
	"testing"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range knobs {
		t.Setenv(k.key, "")
		_ = os.Unsetenv(k.key)
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if cfg.Policy.MinLength != 8 || cfg.Policy.MaxLength != 256 {
		t.Fatalf("policy defaults: %+v", cfg.Policy)
	}
	if cfg.Params.MemoryKiB != 64*1024 || cfg.Params.Iterations != 3 {
		t.Fatalf("argon2 defaults: %+v", cfg.Params)
	}
	if p := cfg.Params.Parallelism; p < 1 || p > 4 {
		t.Fatalf("parallelism %d outside [1..4]", p)
	}
}

func TestFromEnv_Override(t *testing.T) {
	t.Setenv("SESSIOND_PASSWORD_MIN_LEN", "10")
	t.Setenv("SESSIOND_PASSWORD_MAX_LEN", "200")
	t.Setenv("SESSIOND_ARGON2_MEMORY_KIB", "32768")
	t.Setenv("SESSIOND_ARGON2_ITERATIONS", "4")
	t.Setenv("SESSIOND_ARGON2_PARALLELISM", "2")
	t.Setenv("SESSIOND_ARGON2_SALT_LEN", "24")
	t.Setenv("SESSIOND_ARGON2_KEY_LEN", " 32 ")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	want := Config{
		Params: Argon2idParams{MemoryKiB: 32768, Iterations: 4, Parallelism: 2, SaltLength: 24, KeyLength: 32},
		Policy: Policy{MinLength: 10, MaxLength: 200},
	}
	if cfg != want {
		t.Fatalf("got %+v, want %+v", cfg, want)
	}
}

func TestFromEnv_Rejects(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"min above max", map[string]string{"SESSIOND_PASSWORD_MIN_LEN": "20", "SESSIOND_PASSWORD_MAX_LEN": "10"}},
		{"memory too small", map[string]string{"SESSIOND_ARGON2_MEMORY_KIB": "1024"}},
		{"parallelism too large", map[string]string{"SESSIOND_ARGON2_PARALLELISM": "65"}},
		{"not a number", map[string]string{"SESSIOND_ARGON2_ITERATIONS": "three"}},
		{"negative", map[string]string{"SESSIOND_ARGON2_SALT_LEN": "-16"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
