// Package config provides configuration management for the redisproxy tools.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid")

// Environment variables read by ApplyEnv.
const (
	EnvHost      = "REDISPROXY_HOST"
	EnvPort      = "REDISPROXY_PORT"
	EnvRetry     = "REDISPROXY_RETRY"
	EnvTimeoutMS = "REDISPROXY_TIMEOUT_MS"
	EnvLogLevel  = "REDISPROXY_LOG_LEVEL"
)

// Config holds the endpoint and proxy settings.
type Config struct {
	// Endpoint
	Host string `json:"host"`
	Port int    `json:"port"`

	// Retry and timeout
	RetryCount uint  `json:"retry_count"`
	TimeoutMS  int64 `json:"timeout_ms"`

	// Logging
	LogLevel string `json:"log_level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:       "localhost",
		Port:       6379,
		RetryCount: 1,
		TimeoutMS:  2000,
		LogLevel:   "info",
	}
}

// Load loads configuration from a JSON file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Save saves the configuration to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from REDISPROXY_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvPort, err)
		}
		c.Port = n
	}
	if v := os.Getenv(EnvRetry); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvRetry, err)
		}
		c.RetryCount = uint(n)
	}
	if v := os.Getenv(EnvTimeoutMS); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvTimeoutMS, err)
		}
		c.TimeoutMS = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks the endpoint and timeout.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: empty host", ErrInvalid)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalid, c.Port)
	}
	if c.TimeoutMS < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalid)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Timeout returns TimeoutMS as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// ParseLevel maps debug, info, warn and error onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: log level %q", ErrInvalid, s)
	}
}

// NewLogger builds a text logger on stderr at the configured level.
func (c *Config) NewLogger() *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
