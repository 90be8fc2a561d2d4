package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:            "8081",
		DataBackend:     "memory",
		DBPath:          "./test.db",
		DisplayCurrency: "EUR",
		RateCacheTTL:    time.Hour,
		RateCachePath:   "./rates.json",
		RateTimeout:     10 * time.Second,
		LogLevel:        "info",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid memory backend config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid port - non-numeric",
			mutate: func(c *Config) {
				c.Port = "abc"
			},
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name: "invalid port - out of range",
			mutate: func(c *Config) {
				c.Port = "70000"
			},
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name: "invalid backend",
			mutate: func(c *Config) {
				c.DataBackend = "postgres"
			},
			wantErr:     true,
			errorString: "invalid data backend 'postgres'",
		},
		{
			name: "sqlite backend without path",
			mutate: func(c *Config) {
				c.DataBackend = "sqlite"
				c.DBPath = ""
			},
			wantErr:     true,
			errorString: "database path cannot be empty",
		},
		{
			name: "lowercase display currency",
			mutate: func(c *Config) {
				c.DisplayCurrency = "usd"
			},
			wantErr:     true,
			errorString: "invalid display currency 'usd'",
		},
		{
			name: "rate cache TTL too short",
			mutate: func(c *Config) {
				c.RateCacheTTL = time.Second
			},
			wantErr:     true,
			errorString: "must be at least 1 minute",
		},
		{
			name: "rate timeout too long",
			mutate: func(c *Config) {
				c.RateTimeout = 5 * time.Minute
			},
			wantErr:     true,
			errorString: "must be at most 1 minute",
		},
		{
			name: "unknown log level",
			mutate: func(c *Config) {
				c.LogLevel = "verbose"
			},
			wantErr:     true,
			errorString: "invalid log level 'verbose'",
		},
		{
			name: "multiple errors are combined",
			mutate: func(c *Config) {
				c.Port = "abc"
				c.LogLevel = "verbose"
			},
			wantErr:     true,
			errorString: "configuration validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), tt.errorString)
			}
		})
	}
}

func TestConfig_ValidateCreatesDBDirectory(t *testing.T) {
	cfg := validConfig()
	cfg.DataBackend = "sqlite"
	cfg.DBPath = filepath.Join(t.TempDir(), "nested", "moneta.db")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8081" {
		t.Errorf("Port = %q, want 8081", cfg.Port)
	}
	if cfg.DisplayCurrency != "EUR" {
		t.Errorf("DisplayCurrency = %q, want EUR", cfg.DisplayCurrency)
	}
	if cfg.RateCacheTTL != time.Hour {
		t.Errorf("RateCacheTTL = %v, want 1h", cfg.RateCacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("RATE_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.DataBackend != "memory" {
		t.Errorf("DataBackend = %q, want memory", cfg.DataBackend)
	}
	if cfg.RateTimeout != 5*time.Second {
		t.Errorf("RateTimeout = %v, want 5s", cfg.RateTimeout)
	}
}
