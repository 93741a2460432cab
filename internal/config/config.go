// Package config handles TOML-based configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/morikuni/failure/v2"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
const ErrInvalidConfig ErrorCode = "InvalidConfig"

// ErrorCode defines error types for configuration.
type ErrorCode string

var validate = validator.New()

// Config holds all application configuration.
type Config struct {
	Listen   string `toml:"listen" validate:"required"`
	LogLevel string `toml:"log_level" validate:"oneof=trace debug info warn error"`
	LogJSON  bool   `toml:"log_json"`

	Fetch   Fetch   `toml:"fetch"`
	Extract Extract `toml:"extract"`
	Browser Browser `toml:"browser"`
	Server  Server  `toml:"server"`
}

// Fetch configures the plain HTTP transport.
type Fetch struct {
	Timeout      time.Duration `toml:"timeout" validate:"gt=0"`
	UserAgent    string        `toml:"user_agent" validate:"required"`
	MaxBodyBytes int64         `toml:"max_body_bytes" validate:"gt=0"`
}

// Extract configures the orchestrator.
type Extract struct {
	MaxRetries   int      `toml:"max_retries" validate:"gte=0,lte=10"`
	ShortCircuit string   `toml:"short_circuit" validate:"oneof=master any"`
	ExtraMarkers []string `toml:"extra_markers" validate:"dive,required"`
}

// Browser configures the headless browser stage.
type Browser struct {
	Enabled      bool          `toml:"enabled"`
	Bin          string        `toml:"bin"`
	NoSandbox    bool          `toml:"no_sandbox"`
	MaxSessions  int64         `toml:"max_sessions" validate:"gte=1"`
	NavTimeout   time.Duration `toml:"nav_timeout" validate:"gt=0"`
	Settle       time.Duration `toml:"settle" validate:"gte=0"`
	StageTimeout time.Duration `toml:"stage_timeout" validate:"gt=0"`
}

// Server configures the HTTP surface.
type Server struct {
	RequestTimeout time.Duration `toml:"request_timeout" validate:"gt=0"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Listen:   ":3000",
		LogLevel: "info",
		Fetch: Fetch{
			Timeout:      5 * time.Second,
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			MaxBodyBytes: 10 << 20,
		},
		Extract: Extract{
			MaxRetries:   2,
			ShortCircuit: "any",
		},
		Browser: Browser{
			Enabled:      true,
			MaxSessions:  2,
			NavTimeout:   4 * time.Second,
			Settle:       500 * time.Millisecond,
			StageTimeout: 10 * time.Second,
		},
		Server: Server{
			RequestTimeout: 30 * time.Second,
		},
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vidlink"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "vidlink"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file at path, or the default location when path
// is empty, and merges it over the defaults. A missing default file is
// not an error; a missing explicit file is. PORT overrides listen.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Listen = ":" + port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return failure.Translate(err, ErrInvalidConfig, failure.Message("invalid config"))
	}
	if c.Browser.StageTimeout < c.Browser.NavTimeout {
		return failure.New(ErrInvalidConfig,
			failure.Message("browser.stage_timeout must not be shorter than browser.nav_timeout"),
			failure.Context{"stage_timeout": c.Browser.StageTimeout.String(), "nav_timeout": c.Browser.NavTimeout.String()},
		)
	}
	return nil
}
