package session

import (
	"strings"
	"testing"
)

var testSecret = strings.Repeat("k", MinSecretBytes)

func TestLoadConfigFromEnv_MissingSecret(t *testing.T) {
	t.Setenv("SESSIOND_TOKEN_SECRET", "")
	if _, err := LoadConfigFromEnv(); err != ErrConfig {
		t.Fatalf("expected ErrConfig on missing secret, got %v", err)
	}
}

func TestLoadConfigFromEnv_ShortSecret(t *testing.T) {
	t.Setenv("SESSIOND_TOKEN_SECRET", "too-short")
	if _, err := LoadConfigFromEnv(); err != ErrConfig {
		t.Fatalf("expected ErrConfig on short secret, got %v", err)
	}
}

func TestLoadConfigFromEnv_InvalidFormat(t *testing.T) {
	t.Setenv("SESSIOND_TOKEN_SECRET", testSecret)
	t.Setenv("SESSIOND_TOKEN_FORMAT", "saml")
	if _, err := LoadConfigFromEnv(); err != ErrConfig {
		t.Fatalf("expected ErrConfig on unknown format, got %v", err)
	}
}

func TestLoadConfigFromEnv_Valid(t *testing.T) {
	t.Setenv("SESSIOND_TOKEN_SECRET", testSecret)
	t.Setenv("SESSIOND_TOKEN_FORMAT", "PASETO")
	t.Setenv("SESSIOND_TOKEN_ISSUER", "sessiond-test")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.Format != FormatPaseto || cfg.Issuer != "sessiond-test" || string(cfg.Secret) != testSecret {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigFromEnv_DefaultsToJWT(t *testing.T) {
	t.Setenv("SESSIOND_TOKEN_SECRET", testSecret)
	t.Setenv("SESSIOND_TOKEN_FORMAT", "")
	t.Setenv("SESSIOND_TOKEN_ISSUER", "")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.Format != FormatJWT || cfg.Issuer != "sessiond" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}
