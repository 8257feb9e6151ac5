package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete taskwell configuration
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	Shutdown ShutdownConfig `mapstructure:"shutdown"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// EngineConfig controls task execution behavior
type EngineConfig struct {
	// DefaultMaxRetries is the retry budget applied to tasks submitted
	// without an explicit max_retries
	DefaultMaxRetries int `mapstructure:"default_max_retries"`
}

// ShutdownConfig controls the tiered shutdown coordinator
type ShutdownConfig struct {
	// DrainTimeoutMs is the per-priority-class drain window (in milliseconds)
	DrainTimeoutMs int `mapstructure:"drain_timeout_ms"`
	// ForceAfterMs is the overall deadline before survivors are force-cancelled (in milliseconds)
	ForceAfterMs int `mapstructure:"force_after_ms"`
	// GracePeriodMs is how long to wait for cancellation acknowledgment after force-cancel (in milliseconds)
	GracePeriodMs int `mapstructure:"grace_period_ms"`
}

// LoggingConfig controls structured log output
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// Dir is the directory for log files; empty logs to stderr
	Dir string `mapstructure:"dir"`
}

// DrainTimeout returns the per-class drain window as a time.Duration
func (c *ShutdownConfig) DrainTimeout() time.Duration {
	return time.Duration(c.DrainTimeoutMs) * time.Millisecond
}

// ForceAfter returns the force-cancel deadline as a time.Duration
func (c *ShutdownConfig) ForceAfter() time.Duration {
	return time.Duration(c.ForceAfterMs) * time.Millisecond
}

// GracePeriod returns the acknowledgment grace period as a time.Duration
func (c *ShutdownConfig) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodMs) * time.Millisecond
}

// Default returns a Config populated with default values
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			DefaultMaxRetries: 2,
		},
		Shutdown: ShutdownConfig{
			DrainTimeoutMs: 5000,  // 5s per priority class
			ForceAfterMs:   30000, // 30s overall before force-cancel
			GracePeriodMs:  500,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "", // stderr
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("engine.default_max_retries", defaults.Engine.DefaultMaxRetries)

	viper.SetDefault("shutdown.drain_timeout_ms", defaults.Shutdown.DrainTimeoutMs)
	viper.SetDefault("shutdown.force_after_ms", defaults.Shutdown.ForceAfterMs)
	viper.SetDefault("shutdown.grace_period_ms", defaults.Shutdown.GracePeriodMs)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults if
// unmarshaling fails
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "taskwell")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskwell"
	}
	return filepath.Join(home, ".config", "taskwell")
}
