package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// fastConfig keeps Argon2id cheap for unit tests.
func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	cfg.Params.Parallelism = 1
	return cfg
}

func TestHashAndVerify_OK(t *testing.T) {
	cfg := fastConfig()

	h, err := cfg.Hash("this is a strong password 123!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(h, "$argon2id$v=19$") {
		t.Fatalf("unexpected encoding: %q", h)
	}

	ok, err := cfg.Verify(h, "this is a strong password 123!")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatalf("expected match")
	}
}

func TestHash_SaltedPerCall(t *testing.T) {
	cfg := fastConfig()

	a, err := cfg.Hash("pw-1234567")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	b, err := cfg.Hash("pw-1234567")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct encodings for the same password")
	}
}

func TestHash_RejectsEmptyAndOversized(t *testing.T) {
	cfg := fastConfig()
	cfg.Policy.MaxLength = 16

	if _, err := cfg.Hash(""); err != ErrPasswordTooShort {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if _, err := cfg.Hash(strings.Repeat("x", 17)); err != ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	// Hash does not apply the MinLength boundary policy.
	if _, err := cfg.Hash("abc"); err != nil {
		t.Fatalf("expected short non-empty password to hash, got %v", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	cfg := fastConfig()

	h, err := cfg.Hash("this is a strong password 123!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := cfg.Verify(h, "wrong password")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatch")
	}
}

func TestVerify_Bcrypt(t *testing.T) {
	cfg := fastConfig()

	raw, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	ok, err := cfg.Verify(string(raw), "legacy-pass")
	if err != nil || !ok {
		t.Fatalf("expected bcrypt match, ok=%v err=%v", ok, err)
	}
	ok, err = cfg.Verify(string(raw), "nope")
	if err != nil || ok {
		t.Fatalf("expected bcrypt mismatch, ok=%v err=%v", ok, err)
	}
	if !cfg.NeedsRehash(string(raw)) {
		t.Fatalf("bcrypt hash should need rehash")
	}
}

func TestNeedsRehash_CurrentParams(t *testing.T) {
	cfg := fastConfig()

	h, err := cfg.Hash("pw-1234567")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if cfg.NeedsRehash(h) {
		t.Fatalf("fresh hash should not need rehash")
	}

	stronger := cfg
	stronger.Params.Iterations = 2
	if !stronger.NeedsRehash(h) {
		t.Fatalf("expected rehash after cost change")
	}
}

func TestValidate_MinMax(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy.MinLength = 12
	cfg.Policy.MaxLength = 16

	if err := cfg.Validate("short"); err != ErrPasswordTooShort {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}

	if err := cfg.Validate("this password is definitely too long"); err != ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}

	if err := cfg.Validate("goodpassw0rd!"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestValidate_DefaultMinimumIsEight(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate("1234567"); err != ErrPasswordTooShort {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := cfg.Validate("pass1234"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestVerify_InvalidHash(t *testing.T) {
	cfg := fastConfig()

	for _, enc := range []string{
		"not-a-hash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
		"$2b$99$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva",
	} {
		ok, err := cfg.Verify(enc, "whatever")
		if err != ErrInvalidHash {
			t.Fatalf("%q: expected ErrInvalidHash, got %v", enc, err)
		}
		if ok {
			t.Fatalf("%q: expected false", enc)
		}
	}
}

func TestVerify_RefusesExcessiveCost(t *testing.T) {
	cfg := fastConfig()

	big := cfg
	big.Params.Iterations = 5
	h, err := big.Hash("pw-1234567")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if _, err := cfg.Verify(h, "pw-1234567"); err != ErrInvalidHash {
		t.Fatalf("expected ErrInvalidHash for excessive cost, got %v", err)
	}
}
