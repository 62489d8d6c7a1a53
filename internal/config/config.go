// Package config loads runtime configuration from an optional YAML file
// with environment-variable overrides, and sets up logging.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all tunables for the triage service.
type Config struct {
	// DatabasePath is the sqlite database location.
	DatabasePath string `yaml:"database_path"`

	// CallsPerMinute is the outbound model-call budget shared by the
	// sweep and real-time lookups.
	CallsPerMinute int `yaml:"calls_per_minute"`

	// Similarity tunables
	BatchCap            int `yaml:"batch_cap"`
	ActiveThreshold     int `yaml:"active_threshold"`
	HistoricalThreshold int `yaml:"historical_threshold"`
	ActiveTTLHours      int `yaml:"active_ttl_hours"`
	HistoricalTTLHours  int `yaml:"historical_ttl_hours"`
	MaxCandidates       int `yaml:"max_candidates"`

	// Retry policy for provider calls
	MaxAttempts    int `yaml:"max_attempts"`
	InitialDelayMs int `yaml:"initial_delay_ms"`
	MaxDelayMs     int `yaml:"max_delay_ms"`

	// RequestTimeoutSec bounds a single provider call at the transport.
	RequestTimeoutSec int `yaml:"request_timeout_sec"`

	// Logging
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the standard configuration.
func Default() Config {
	return Config{
		DatabasePath:        ".triage/triage.db",
		CallsPerMinute:      12,
		BatchCap:            20,
		ActiveThreshold:     60,
		HistoricalThreshold: 80,
		ActiveTTLHours:      1,
		HistoricalTTLHours:  168,
		MaxCandidates:       200,
		MaxAttempts:         3,
		InitialDelayMs:      1000,
		MaxDelayMs:          10000,
		RequestTimeoutSec:   50,
		LogLevel:            "info",
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty the file must exist), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks for usable values.
func (c Config) Validate() error {
	if c.CallsPerMinute < 1 {
		return fmt.Errorf("calls_per_minute must be at least 1, got %d", c.CallsPerMinute)
	}
	if c.BatchCap < 1 {
		return fmt.Errorf("batch_cap must be at least 1, got %d", c.BatchCap)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.ActiveTTLHours < 1 || c.HistoricalTTLHours < 1 {
		return fmt.Errorf("TTLs must be at least 1 hour")
	}
	return nil
}

// ActiveTTL returns the active match TTL as a duration.
func (c Config) ActiveTTL() time.Duration {
	return time.Duration(c.ActiveTTLHours) * time.Hour
}

// HistoricalTTL returns the historical match TTL as a duration.
func (c Config) HistoricalTTL() time.Duration {
	return time.Duration(c.HistoricalTTLHours) * time.Hour
}

// RequestTimeout returns the provider transport timeout.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TRIAGE_DB_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("TRIAGE_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("TRIAGE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	setEnvInt("TRIAGE_CALLS_PER_MINUTE", &cfg.CallsPerMinute)
	setEnvInt("TRIAGE_BATCH_CAP", &cfg.BatchCap)
	setEnvInt("TRIAGE_ACTIVE_THRESHOLD", &cfg.ActiveThreshold)
	setEnvInt("TRIAGE_HISTORICAL_THRESHOLD", &cfg.HistoricalThreshold)
	setEnvInt("TRIAGE_MAX_ATTEMPTS", &cfg.MaxAttempts)
}

func setEnvInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// ParseLogLevel maps a config string to a slog level, defaulting to info.
func ParseLogLevel(s string) slog.Level {
	switch s {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
