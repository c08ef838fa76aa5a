package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const devJWTSecret = "dev-secret-change-me"

// Config holds the server settings, read from the environment.
type Config struct {
	Environment string
	Port        string
	DatabaseURL string

	JWTSecret string
	TokenTTL  time.Duration

	CORSOrigin      string
	DefaultPageSize int

	LogFormat string
	LogLevel  string

	SeedCategories []string
}

// Load reads the configuration from the environment. A .env file, if any,
// must already have been loaded by the caller.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		Port:        getEnvOrDefault("PORT", "8080"),
		DatabaseURL: getEnvOrDefault("DATABASE_URL", "sqlite://petitions.db"),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		CORSOrigin:  getEnvOrDefault("CORS_ORIGIN", "*"),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", "json"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
	}

	pageSize, err := strconv.Atoi(getEnvOrDefault("DEFAULT_PAGE_SIZE", "10"))
	if err != nil || pageSize <= 0 {
		return nil, fmt.Errorf("DEFAULT_PAGE_SIZE must be a positive integer, got %q", os.Getenv("DEFAULT_PAGE_SIZE"))
	}
	cfg.DefaultPageSize = pageSize

	ttl, err := time.ParseDuration(getEnvOrDefault("TOKEN_TTL", "20h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = ttl

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = devJWTSecret
	}

	if raw := os.Getenv("SEED_CATEGORIES"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.SeedCategories = append(cfg.SeedCategories, name)
			}
		}
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
