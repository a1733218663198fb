package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds everything read from the environment at startup. The JWT
// secret is injected into the token manager and must never be logged.
type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	JWTSecret      string
	TokenTTL       time.Duration
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseDriver: getenv("DATABASE_DRIVER", "sqlite3"),
		DatabaseURL:    getenv("DATABASE_URL", "taskchat.db"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:    getenv("OPENAI_MODEL", "gpt-4o-mini"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	hours := 24
	if v := os.Getenv("TOKEN_TTL_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, errors.New("TOKEN_TTL_HOURS must be a positive integer")
		}
		hours = n
	}
	cfg.TokenTTL = time.Duration(hours) * time.Hour

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
