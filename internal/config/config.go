// Package config provides configuration loading and validation for the
// portfolio agent. All configuration comes from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the service configuration.
type Config struct {
	Port               int
	DatabaseURL        string
	GeminiAPIKey       string
	RateLimitPerMinute int
	LogLevel           string
}

// Load reads the service configuration from the environment.
// PORT and RATE_LIMIT_PER_MINUTE are optional with defaults; DATABASE_URL and
// GEMINI_API_KEY are required.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               8080,
		RateLimitPerMinute: 10,
		LogLevel:           "info",
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %v", err)
		}
		cfg.Port = port
	}

	if limitStr := os.Getenv("RATE_LIMIT_PER_MINUTE"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %v", err)
		}
		cfg.RateLimitPerMinute = limit
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: port out of range: %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: DATABASE_URL is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("config error: GEMINI_API_KEY is required")
	}
	if c.RateLimitPerMinute < 1 {
		return fmt.Errorf("config error: RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}
