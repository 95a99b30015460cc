// Package config loads crashlog settings from a TOML file with environment
// variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/strongdm/ai-cxdb-crashlog/pkg/crashlog"
)

// Environment variables that override file values.
const (
	EnvAPIKey      = "CRASHLOG_API_KEY"
	EnvLogID       = "CRASHLOG_LOG_ID"
	EnvApplication = "CRASHLOG_APPLICATION"
	EnvEndpoint    = "CRASHLOG_ENDPOINT"
	EnvMaxCrumbs   = "CRASHLOG_MAXIMUM_BREADCRUMBS"
)

// Config is the on-disk configuration.
type Config struct {
	APIKey             string            `toml:"api_key"`
	LogID              string            `toml:"log_id"`
	Application        string            `toml:"application"`
	MaximumBreadcrumbs int               `toml:"maximum_breadcrumbs"`
	Endpoint           string            `toml:"endpoint"`
	Timeout            Duration          `toml:"timeout"`
	Gzip               bool              `toml:"gzip"`
	QueueSize          int               `toml:"queue_size"`
	Environment        map[string]string `toml:"environment"`

	// path and raw are the loaded file, reported with the installation.
	path string
	raw  []byte
}

// Duration is a time.Duration written as a string such as "5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaximumBreadcrumbs: crashlog.DefaultMaximumBreadcrumbs,
		Timeout:            Duration{5 * time.Second},
		QueueSize:          crashlog.DefaultQueueSize,
	}
}

// Load reads path, applies environment overrides and returns the result.
// An empty path yields the defaults plus environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg.path = path
		cfg.raw = data
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv(EnvLogID); v != "" {
		cfg.LogID = v
	}
	if v := os.Getenv(EnvApplication); v != "" {
		cfg.Application = v
	}
	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv(EnvMaxCrumbs); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxCrumbs, err)
		}
		cfg.MaximumBreadcrumbs = n
	}
	return nil
}

// ErrInvalidLogID is returned by Options when log_id is not a UUID.
var ErrInvalidLogID = errors.New("config: log_id must be a UUID")

// Options converts the file configuration into session options.
// Callbacks are left for the caller to set.
func (c *Config) Options() (crashlog.Options, error) {
	opts := crashlog.Options{
		APIKey:             c.APIKey,
		Application:        c.Application,
		MaximumBreadcrumbs: c.MaximumBreadcrumbs,
	}

	if c.LogID != "" {
		id, err := uuid.Parse(c.LogID)
		if err != nil {
			return crashlog.Options{}, fmt.Errorf("%w: %v", ErrInvalidLogID, err)
		}
		opts.LogID = id
	}

	keys := make([]string, 0, len(c.Environment))
	for k := range c.Environment {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		opts.Environment = append(opts.Environment, crashlog.Item{Key: k, Value: c.Environment[k]})
	}

	if c.path != "" {
		opts.ConfigFiles = []crashlog.ConfigFile{{
			Name:    filepath.Base(c.path),
			Content: string(c.raw),
		}}
	}
	return opts, nil
}
