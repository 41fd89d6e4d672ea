package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("BOARD_JWT_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.JWT.AccessTokenTTL != 24*time.Hour {
		t.Fatalf("expected 24h token ttl, got %s", cfg.JWT.AccessTokenTTL)
	}
	if cfg.Revocation.Backend != RevocationBackendMemory {
		t.Fatalf("expected memory backend by default, got %q", cfg.Revocation.Backend)
	}
	if cfg.Revocation.SweepInterval != time.Hour {
		t.Fatalf("expected hourly sweep, got %s", cfg.Revocation.SweepInterval)
	}
	if cfg.Revocation.MaxEventLag != 30*time.Second {
		t.Fatalf("expected 30s max event lag, got %s", cfg.Revocation.MaxEventLag)
	}
	if cfg.App.Port != 8080 {
		t.Fatalf("expected port 8080, got %d", cfg.App.Port)
	}
}

func TestLoadReadsEnvironmentOverrides(t *testing.T) {
	t.Setenv("BOARD_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("BOARD_JWT_ACCESS_TOKEN_TTL", "15m")
	t.Setenv("BOARD_REVOCATION_SWEEP_INTERVAL", "5m")
	t.Setenv("BOARD_ACCESS_PUBLIC_PATHS", "/status,/public-feed/*")
	t.Setenv("BOARD_REVOCATION_MAX_EVENT_LAG", "2m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.JWT.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected 15m ttl, got %s", cfg.JWT.AccessTokenTTL)
	}
	if cfg.Revocation.SweepInterval != 5*time.Minute {
		t.Fatalf("expected 5m sweep interval, got %s", cfg.Revocation.SweepInterval)
	}
	if cfg.Revocation.MaxEventLag != 2*time.Minute {
		t.Fatalf("expected 2m max event lag, got %s", cfg.Revocation.MaxEventLag)
	}
	if len(cfg.Access.PublicPaths) != 2 || cfg.Access.PublicPaths[1] != "/public-feed/*" {
		t.Fatalf("unexpected public paths: %#v", cfg.Access.PublicPaths)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("BOARD_JWT_SECRET", "")

	if _, err := Load(); !errors.Is(err, ErrMissingJWTSecret) {
		t.Fatalf("expected ErrMissingJWTSecret, got %v", err)
	}
}

func TestValidateRejectsRedisBackendWithoutRedis(t *testing.T) {
	cfg := AppConfig{
		JWT:        JWTSettings{Secret: "secret", AccessTokenTTL: time.Hour},
		Revocation: RevocationSettings{Backend: RevocationBackendRedis},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for redis backend with redis disabled")
	}

	cfg.Redis.Enabled = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg.Revocation.Backend = "etcd"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
