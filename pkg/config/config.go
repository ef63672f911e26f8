// Package config loads the console configuration from an optional YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding the file.
const (
	EnvAPIURL       = "BOOKING_API_URL"
	EnvLogLevel     = "BOOKING_LOG_LEVEL"
	EnvHTTPTimeout  = "BOOKING_HTTP_TIMEOUT"
	EnvRedisAddr    = "BOOKING_REDIS_ADDR"
	EnvTenant       = "BOOKING_TENANT"
	EnvQueryRetries = "BOOKING_QUERY_RETRIES"
)

// Config holds the settings shared by every console command.
type Config struct {
	APIURL   string `yaml:"api_url"`
	LogLevel string `yaml:"log_level"`
	// HTTPTimeout bounds every request, e.g. "10s".
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	// Tenant is the default tenant slug.
	Tenant string `yaml:"tenant"`

	Query QueryConfig `yaml:"query"`
	Redis RedisConfig `yaml:"redis"`
}

// QueryConfig tunes the query engine.
type QueryConfig struct {
	RetryCount int           `yaml:"retry_count"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// RedisConfig locates the optional snapshot store. An empty Addr keeps
// snapshots in memory.
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		APIURL:      "http://localhost:8080",
		LogLevel:    "info",
		HTTPTimeout: 10 * time.Second,
		Query: QueryConfig{
			RetryCount: 1,
			RetryDelay: 500 * time.Millisecond,
		},
		Redis: RedisConfig{
			KeyPrefix: "booking:query:",
			TTL:       24 * time.Hour,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides. A
// missing file is not an error when path is empty.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if raw, err := os.ReadFile("bookingctl.yaml"); err == nil {
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse bookingctl.yaml: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read bookingctl.yaml: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvHTTPTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvHTTPTimeout, v, err)
		}
		c.HTTPTimeout = d
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv(EnvTenant); v != "" {
		c.Tenant = v
	}
	if v := os.Getenv(EnvQueryRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvQueryRetries, v, err)
		}
		c.Query.RetryCount = n
	}
	return nil
}

// Validate checks the settings that would otherwise fail later.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url cannot be empty")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	if c.HTTPTimeout < 0 || c.Query.RetryDelay < 0 {
		return errors.New("durations cannot be negative")
	}
	if c.Query.RetryCount < 0 {
		return errors.New("query retry_count cannot be negative")
	}
	return nil
}

// Level returns the parsed log level. Load has already validated it.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
