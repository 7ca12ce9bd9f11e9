package config

import (
	"strings"
	"testing"
)

func TestAddr(t *testing.T) {
	cfg := &Config{ServerHost: "127.0.0.1", ServerPort: 3000}
	if got := cfg.Addr(); got != "127.0.0.1:3000" {
		t.Errorf("Addr: got %q, want %q", got, "127.0.0.1:3000")
	}
}

func TestLoad_RedisDisabledByDefault(t *testing.T) {
	t.Setenv("REDIS_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RedisURL != "" {
		t.Errorf("RedisURL should default to empty (cache opt-in), got %q", cfg.RedisURL)
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort default: got %d, want 8080", cfg.ServerPort)
	}
}

func TestValidateForProduction_NonProductionNoOps(t *testing.T) {
	cfg := &Config{
		Environment: EnvDevelopment,
		Debug:       true,
		LogLevel:    "debug",
	}
	if err := ValidateForProduction(cfg); err != nil {
		t.Fatalf("expected nil for non-production, got %v", err)
	}
}

func TestValidateForProduction_RejectsUnsafeSettings(t *testing.T) {
	cfg := &Config{
		Environment:        EnvProduction,
		Debug:              true,
		LogLevel:           "debug",
		CORSAllowedOrigins: "*",
		DatabaseURL:        "postgres://localhost/datavault?sslmode=disable",
	}
	err := ValidateForProduction(cfg)
	if err == nil {
		t.Fatal("expected error for unsafe production config")
	}
	for _, want := range []string{"DEBUG", "LOG_LEVEL", "CORS_ALLOWED_ORIGINS", "DATABASE_URL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err.Error(), want)
		}
	}
}

func TestValidateForProduction_AcceptsSafeSettings(t *testing.T) {
	cfg := &Config{
		Environment:        EnvProduction,
		LogLevel:           "info",
		CORSAllowedOrigins: "https://app.example.com",
		DatabaseURL:        "postgres://db.internal:5432/datavault?sslmode=require",
	}
	if err := ValidateForProduction(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
