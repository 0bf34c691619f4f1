package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port          string
	Env           string
	DBPath        string
	JWTSecret     string
	TokenDuration time.Duration
}

// Load reads configuration from environment variables. In development it
// loads from a .env file if present; in production it panics on missing
// required variables.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		DBPath:        getEnv("DB_PATH", "./data/ledger.db"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenDuration: getDuration("TOKEN_DURATION", 24*time.Hour),
	}

	if cfg.JWTSecret == "" {
		// Only development gets a fallback secret.
		if !cfg.IsDevelopment() {
			panic("JWT_SECRET is required outside development")
		}
		cfg.JWTSecret = "dev-secret-do-not-use-in-production"
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
