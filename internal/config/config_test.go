package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("development falls back to a dev secret", func(t *testing.T) {
		t.Setenv("ENV", "development")
		t.Setenv("JWT_SECRET", "")

		cfg := Load()
		if !cfg.IsDevelopment() {
			t.Error("expected development mode")
		}
		if cfg.JWTSecret == "" {
			t.Error("expected a fallback JWT secret in development")
		}
	})

	t.Run("production requires a secret", func(t *testing.T) {
		t.Setenv("ENV", "production")
		t.Setenv("JWT_SECRET", "")

		defer func() {
			if recover() == nil {
				t.Error("expected panic without JWT_SECRET in production")
			}
		}()
		Load()
	})

	t.Run("explicit values win", func(t *testing.T) {
		t.Setenv("ENV", "production")
		t.Setenv("JWT_SECRET", "supersecret")
		t.Setenv("PORT", "9090")
		t.Setenv("TOKEN_DURATION", "2h")

		cfg := Load()
		if cfg.IsDevelopment() {
			t.Error("expected non-development mode")
		}
		if cfg.JWTSecret != "supersecret" {
			t.Errorf("expected configured secret, got %q", cfg.JWTSecret)
		}
		if cfg.Port != "9090" {
			t.Errorf("expected port 9090, got %q", cfg.Port)
		}
		if cfg.TokenDuration != 2*time.Hour {
			t.Errorf("expected 2h token duration, got %s", cfg.TokenDuration)
		}
	})

	t.Run("bad duration falls back to default", func(t *testing.T) {
		t.Setenv("ENV", "development")
		t.Setenv("JWT_SECRET", "x")
		t.Setenv("TOKEN_DURATION", "not-a-duration")

		cfg := Load()
		if cfg.TokenDuration != 24*time.Hour {
			t.Errorf("expected default 24h, got %s", cfg.TokenDuration)
		}
	})
}
