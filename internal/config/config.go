package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment
// variables with an optional .env file.
type Config struct {
	DataURL         string
	ServicesURL     string
	HTTPAddr        string
	LogLevel        string
	FetchTimeout    time.Duration
	RefreshInterval time.Duration
}

// Load reads configuration from environment variables, applying
// defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	fetchTimeout, err := time.ParseDuration(getEnv("FETCH_TIMEOUT", "30s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	refreshInterval, err := time.ParseDuration(getEnv("REFRESH_INTERVAL", "10m"))
	if err != nil || refreshInterval <= 0 {
		return nil, errors.New("invalid REFRESH_INTERVAL")
	}

	cfg := &Config{
		DataURL:         getEnv("STATUS_DATA_URL", "https://status.aws.amazon.com/data.json"),
		ServicesURL:     getEnv("STATUS_SERVICES_URL", "https://status.aws.amazon.com/services.json"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		FetchTimeout:    fetchTimeout,
		RefreshInterval: refreshInterval,
	}

	if cfg.DataURL == "" {
		return nil, errors.New("STATUS_DATA_URL is required")
	}
	if cfg.ServicesURL == "" {
		return nil, errors.New("STATUS_SERVICES_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
