package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the dashboard.
type Config struct {
	APIBaseURL    string
	HTTPTimeout   time.Duration
	PollInterval  time.Duration
	PageSize      int
	ActivityLimit int
	Debug         bool
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL: strings.TrimRight(getEnv("CALLDECK_API_URL", "http://localhost:8000/api"), "/"),
		Debug:      getEnv("CALLDECK_DEBUG", "") != "",
	}

	httpTimeout, err := strconv.Atoi(getEnv("CALLDECK_HTTP_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid CALLDECK_HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = time.Duration(httpTimeout) * time.Second

	pollInterval, err := strconv.Atoi(getEnv("CALLDECK_POLL_INTERVAL", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid CALLDECK_POLL_INTERVAL: %w", err)
	}
	cfg.PollInterval = time.Duration(pollInterval) * time.Second

	cfg.PageSize, err = strconv.Atoi(getEnv("CALLDECK_PAGE_SIZE", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid CALLDECK_PAGE_SIZE: %w", err)
	}

	cfg.ActivityLimit, err = strconv.Atoi(getEnv("CALLDECK_ACTIVITY_LIMIT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid CALLDECK_ACTIVITY_LIMIT: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
