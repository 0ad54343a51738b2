// Package config handles XDG configuration directory, config file and
// environment settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"flowtrack/internal/session"
)

const (
	// AppName is the application directory name.
	AppName = "flowtrack"

	// ConfigFile is the YAML settings filename.
	ConfigFile = "config.yaml"

	// SessionFile is the stored user session filename.
	SessionFile = "session.json"

	// DefaultBaseURL is the Apper API endpoint used when none is configured.
	DefaultBaseURL = "https://api.apper.io"

	// DefaultRateLimit is the request rate used when none is configured.
	DefaultRateLimit = 10.0
)

// Environment variables that override config.yaml.
const (
	EnvProjectID = "APPER_PROJECT_ID"
	EnvPublicKey = "APPER_PUBLIC_KEY"
	EnvBaseURL   = "APPER_BASE_URL"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `yaml:"-"`

	// Debug enables debug logging.
	Debug bool `yaml:"-"`

	// Quiet suppresses informational output.
	Quiet bool `yaml:"-"`

	// User is the logged-in user, nil when there is no session.
	User *session.User `yaml:"-"`

	Apper ApperConfig `yaml:"apper"`
	Log   LogConfig   `yaml:"log"`
}

// ApperConfig holds the backend project credentials.
type ApperConfig struct {
	ProjectID string `yaml:"project_id"`
	PublicKey string `yaml:"public_key"`
	BaseURL   string `yaml:"base_url"`

	// RateLimit caps requests per second; 0 disables the limit.
	RateLimit float64 `yaml:"rate_limit"`
}

// LogConfig controls where non-debug logs go.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // empty disables logging
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/flowtrack or $HOME/.config/flowtrack.
// Settings are read from config.yaml in that directory when present, then
// overridden by the process environment (after loading ./.env).
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	cfg := &Config{
		Dir: dir,
		Apper: ApperConfig{
			BaseURL:   DefaultBaseURL,
			RateLimit: DefaultRateLimit,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}

	data, err := os.ReadFile(cfg.ConfigPath())
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvProjectID); v != "" {
		c.Apper.ProjectID = v
	}
	if v := os.Getenv(EnvPublicKey); v != "" {
		c.Apper.PublicKey = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Apper.BaseURL = v
	}
	if c.Apper.BaseURL == "" {
		c.Apper.BaseURL = DefaultBaseURL
	}
	c.Apper.BaseURL = strings.TrimRight(c.Apper.BaseURL, "/")
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error: %q", c.Log.Level)
	}
	if c.Apper.RateLimit < 0 {
		return fmt.Errorf("apper.rate_limit must not be negative: %v", c.Apper.RateLimit)
	}
	if !strings.HasPrefix(c.Apper.BaseURL, "http://") && !strings.HasPrefix(c.Apper.BaseURL, "https://") {
		return fmt.Errorf("apper.base_url must be an http(s) URL: %q", c.Apper.BaseURL)
	}
	return nil
}

// HasCredentials reports whether both Apper project credentials are set.
// Without them no backend client can be built.
func (c *Config) HasCredentials() bool {
	return c.Apper.ProjectID != "" && c.Apper.PublicKey != ""
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigPath returns the path to config.yaml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// SessionPath returns the path to the stored session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}
