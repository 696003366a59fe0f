package config

import (
	"os"
	"testing"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/carelink_test")
	defer os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %q", cfg.Port)
	}
	if cfg.DBMaxConns != 20 || cfg.DBMinConns != 5 {
		t.Errorf("unexpected pool defaults: max=%d min=%d", cfg.DBMaxConns, cfg.DBMinConns)
	}
	if !cfg.IsDev() {
		t.Error("default ENV should be development")
	}
}

func TestValidate_ProductionRequiresAuth(t *testing.T) {
	cfg := &Config{Env: "production"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for production without auth config")
	}
	cfg.AuthJWKSURL = "https://auth.example.com/jwks"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_DevNeedsNoAuth(t *testing.T) {
	cfg := &Config{Env: "development"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NegativeRateLimit(t *testing.T) {
	cfg := &Config{Env: "development", RateLimitRPS: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative rate limit")
	}
}
