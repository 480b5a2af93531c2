// Package config provides configuration management for procdock.
// It supports loading configuration from environment variables, config files, and defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration sections for procdock.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Runner   RunnerConfig   `mapstructure:"runner"`
	Settings SettingsConfig `mapstructure:"settings"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"readTimeout"`  // in seconds
	WriteTimeout int    `mapstructure:"writeTimeout"` // in seconds
}

// NATSConfig holds NATS messaging configuration.
// An empty URL selects the in-memory event bus.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	ClientID      string `mapstructure:"clientId"`
	MaxReconnects int    `mapstructure:"maxReconnects"`
}

// RunnerConfig holds command runner configuration.
type RunnerConfig struct {
	// OutputBufferBytes caps the per-command output buffer. Oldest chunks
	// are evicted once the cap is exceeded.
	OutputBufferBytes int `mapstructure:"outputBufferBytes"`

	// StopGracePeriod is how long a stopped process gets between SIGTERM
	// and SIGKILL, in seconds.
	StopGracePeriod int `mapstructure:"stopGracePeriod"`

	// RecentLimit is the size of the "recent" lookup scope.
	RecentLimit int `mapstructure:"recentLimit"`

	// DefaultCols/DefaultRows size pseudo-terminal sessions when the caller
	// does not specify dimensions.
	DefaultCols int `mapstructure:"defaultCols"`
	DefaultRows int `mapstructure:"defaultRows"`
}

// SettingsConfig holds the settings store configuration.
type SettingsConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"outputPath"`
}

// ReadTimeoutDuration returns the read timeout as a time.Duration.
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a time.Duration.
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// StopGracePeriodDuration returns the stop grace period as a time.Duration.
func (r *RunnerConfig) StopGracePeriodDuration() time.Duration {
	return time.Duration(r.StopGracePeriod) * time.Second
}

// detectDefaultLogFormat returns the appropriate log format based on environment.
// Returns "json" if running in Kubernetes or other production environments.
// Returns "text" for terminal/development use (human-readable console format).
func detectDefaultLogFormat() string {
	// Check if running in Kubernetes
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "json"
	}

	// Check for explicit production environment
	if env := os.Getenv("PROCDOCK_ENV"); env == "production" || env == "prod" {
		return "json"
	}

	// Default to text format for terminal use (more readable than JSON)
	return "text"
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// NATS defaults - empty URL means use in-memory event bus
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.clientId", "procdock-client")
	v.SetDefault("nats.maxReconnects", 10)

	// Runner defaults
	v.SetDefault("runner.outputBufferBytes", 1024*1024)
	v.SetDefault("runner.stopGracePeriod", 2)
	v.SetDefault("runner.recentLimit", 10)
	v.SetDefault("runner.defaultCols", 120)
	v.SetDefault("runner.defaultRows", 32)

	// Settings store defaults
	v.SetDefault("settings.path", "~/.procdock/settings.yaml")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", detectDefaultLogFormat())
	v.SetDefault("logging.outputPath", "stdout")
}

// Load reads configuration from environment variables, config file, and defaults.
// Environment variables use the prefix PROCDOCK_ with snake_case naming.
// Config file should be named procdock.yaml and placed in the current directory,
// ./config, or /etc/procdock/.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from the specified path or default locations.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults first
	setDefaults(v)

	// Configure environment variables
	v.SetEnvPrefix("PROCDOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit bindings for snake_case env vars (camelCase config keys)
	// AutomaticEnv does not handle camelCase to SNAKE_CASE conversion,
	// so we explicitly bind keys where env var naming differs from config key naming.
	_ = v.BindEnv("server.readTimeout", "PROCDOCK_SERVER_READ_TIMEOUT")
	_ = v.BindEnv("server.writeTimeout", "PROCDOCK_SERVER_WRITE_TIMEOUT")
	_ = v.BindEnv("nats.clientId", "PROCDOCK_NATS_CLIENT_ID")
	_ = v.BindEnv("nats.maxReconnects", "PROCDOCK_NATS_MAX_RECONNECTS")
	_ = v.BindEnv("runner.outputBufferBytes", "PROCDOCK_RUNNER_OUTPUT_BUFFER_BYTES")
	_ = v.BindEnv("runner.stopGracePeriod", "PROCDOCK_RUNNER_STOP_GRACE_PERIOD")
	_ = v.BindEnv("runner.recentLimit", "PROCDOCK_RUNNER_RECENT_LIMIT")
	_ = v.BindEnv("runner.defaultCols", "PROCDOCK_RUNNER_DEFAULT_COLS")
	_ = v.BindEnv("runner.defaultRows", "PROCDOCK_RUNNER_DEFAULT_ROWS")
	_ = v.BindEnv("logging.outputPath", "PROCDOCK_LOGGING_OUTPUT_PATH")

	// Configure config file
	v.SetConfigName("procdock")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/procdock/")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks that all required configuration fields are set.
func validate(cfg *Config) error {
	var errs []string

	// Server validation - always required
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	// NATS validation - optional (uses in-memory event bus if not set)
	// No validation needed - empty URL means use in-memory

	// Runner validation
	if cfg.Runner.OutputBufferBytes <= 0 {
		errs = append(errs, "runner.outputBufferBytes must be positive")
	}
	if cfg.Runner.StopGracePeriod <= 0 {
		errs = append(errs, "runner.stopGracePeriod must be positive")
	}
	if cfg.Runner.RecentLimit <= 0 {
		errs = append(errs, "runner.recentLimit must be positive")
	}
	if cfg.Runner.DefaultCols <= 0 || cfg.Runner.DefaultRows <= 0 {
		errs = append(errs, "runner.defaultCols and runner.defaultRows must be positive")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}

	return nil
}
