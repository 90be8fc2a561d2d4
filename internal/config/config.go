package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v8"
)

type Config struct {
	// HTTP Server
	Port string `env:"PORT" envDefault:"8081"`

	// Database
	DataBackend string `env:"DATA_BACKEND" envDefault:"sqlite"`
	DBPath      string `env:"MONETA_DB_PATH" envDefault:"./data/moneta.db"`

	// Reporting
	DisplayCurrency string `env:"DISPLAY_CURRENCY" envDefault:"EUR"`

	// Exchange rates
	RateCacheTTL  time.Duration `env:"RATE_CACHE_TTL" envDefault:"1h"`
	RateCachePath string        `env:"RATE_CACHE_PATH" envDefault:"./data/rates.json"`
	RateTimeout   time.Duration `env:"RATE_TIMEOUT" envDefault:"10s"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"sqlite", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.DBPath == "" {
			errors = append(errors, "database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.DBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if !isCurrencyCode(c.DisplayCurrency) {
		errors = append(errors, fmt.Sprintf("invalid display currency '%s': must be an uppercase code of 3 to 8 letters", c.DisplayCurrency))
	}

	if c.RateCacheTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid rate cache TTL %v: must be at least 1 minute", c.RateCacheTTL))
	} else if c.RateCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid rate cache TTL %v: must be at most 24 hours", c.RateCacheTTL))
	}

	if c.RateTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid rate timeout %v: must be at least 1 second", c.RateTimeout))
	} else if c.RateTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid rate timeout %v: must be at most 1 minute", c.RateTimeout))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Addr is the listen address derived from Port.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func isCurrencyCode(code string) bool {
	if len(code) < 3 || len(code) > 8 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
