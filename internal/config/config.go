// Package config provides unified configuration loading for bayesplot.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/nvandessel/bayesplot/internal/posterior"
	"gopkg.in/yaml.v3"
)

// Config contains all bayesplot configuration settings.
type Config struct {
	// Server contains settings for the widget HTTP server.
	Server ServerConfig `json:"server" yaml:"server"`

	// Defaults are the initial slider positions of a new session.
	Defaults posterior.Params `json:"defaults" yaml:"defaults"`

	// Limits contains rate limits for the regenerate action.
	Limits LimitsConfig `json:"limits" yaml:"limits"`

	// Logging contains settings for operational and trace logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// ServerConfig configures the widget server.
type ServerConfig struct {
	// Addr is the listen address. An empty port (e.g. "localhost:0") lets
	// the OS pick one.
	Addr string `json:"addr" yaml:"addr" env:"BAYESPLOT_ADDR"`

	// SessionTTL is how long an idle browser session is kept.
	SessionTTL time.Duration `json:"session_ttl" yaml:"session_ttl" env:"BAYESPLOT_SESSION_TTL"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" env:"BAYESPLOT_SHUTDOWN_TIMEOUT"`

	// OpenBrowser opens the panel in the default browser once serving.
	OpenBrowser bool `json:"open_browser" yaml:"open_browser" env:"BAYESPLOT_OPEN_BROWSER"`
}

// LimitsConfig configures per-session rate limiting.
type LimitsConfig struct {
	// RegenerateRate is the sustained number of regenerations per second.
	RegenerateRate float64 `json:"regenerate_rate" yaml:"regenerate_rate" env:"BAYESPLOT_REGENERATE_RATE"`

	// RegenerateBurst is the bucket size.
	RegenerateBurst int `json:"regenerate_burst" yaml:"regenerate_burst" env:"BAYESPLOT_REGENERATE_BURST"`
}

// LoggingConfig configures bayesplot's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables the interaction trace in TraceDir.
	Level string `json:"level" yaml:"level" env:"BAYESPLOT_LOG_LEVEL"`

	// TraceDir is where interactions.jsonl is written at debug level.
	TraceDir string `json:"trace_dir,omitempty" yaml:"trace_dir,omitempty" env:"BAYESPLOT_TRACE_DIR"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "localhost:5006",
			SessionTTL:      30 * time.Minute,
			ShutdownTimeout: 5 * time.Second,
			OpenBrowser:     true,
		},
		Defaults: posterior.DefaultParams(),
		Limits: LimitsConfig{
			RegenerateRate:  5,
			RegenerateBurst: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.bayesplot/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory: %w", err)
	}
	return filepath.Join(homeDir, ".bayesplot", "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.bayesplot/config.yaml -> environment variables
func Load() (*Config, error) {
	config := Default()

	if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadWithFile is Load with an explicit config file in place of the
// default location. An empty path behaves like Load.
func LoadWithFile(path string) (*Config, error) {
	if path == "" {
		return Load()
	}
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}

	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive, got %v", c.Server.SessionTTL)
	}

	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown_timeout must be non-negative, got %v", c.Server.ShutdownTimeout)
	}

	if err := c.Defaults.Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}

	if c.Limits.RegenerateRate <= 0 {
		return fmt.Errorf("regenerate_rate must be positive, got %f", c.Limits.RegenerateRate)
	}

	if c.Limits.RegenerateBurst < 1 {
		return fmt.Errorf("regenerate_burst must be at least 1, got %d", c.Limits.RegenerateBurst)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// applyEnvOverrides applies BAYESPLOT_* environment variables to the config.
func applyEnvOverrides(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
