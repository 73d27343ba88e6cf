// Package config loads and validates archiver configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/m-a-p/link-archiver/internal/archive"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Services ServicesConfig `mapstructure:"services"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// LogConfig locates the persisted archive log.
type LogConfig struct {
	Path string `mapstructure:"path"`
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
	UserAgents     []string `mapstructure:"user_agents"`
}

// RetryConfig governs submission retry behavior.
type RetryConfig struct {
	MaxAttempts      int `mapstructure:"max_attempts"`
	BackoffInitialMs int `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int `mapstructure:"backoff_max_ms"`
}

// ServicesConfig toggles and targets the archiving backends.
type ServicesConfig struct {
	Wayback       ServiceConfig `mapstructure:"wayback"`
	ArchiveToday  ServiceConfig `mapstructure:"archive_today"`
	MinIntervalMs int           `mapstructure:"min_interval_ms"`
}

// ServiceConfig configures one archiving backend.
type ServiceConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LINKARCHIVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.path", "archived_links.json")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.user_agents", []string{})
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.backoff_initial_ms", 1000)
	v.SetDefault("retry.backoff_max_ms", 30000)
	v.SetDefault("services.wayback.enabled", true)
	v.SetDefault("services.wayback.endpoint", "https://web.archive.org")
	v.SetDefault("services.archive_today.enabled", true)
	v.SetDefault("services.archive_today.endpoint", "https://archive.today")
	v.SetDefault("services.min_interval_ms", 2000)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Log.Path) == "" {
		return fmt.Errorf("log.path must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be > 0")
	}
	if c.Retry.BackoffInitialMs <= 0 {
		return fmt.Errorf("retry.backoff_initial_ms must be > 0")
	}
	if c.Retry.BackoffMaxMs < c.Retry.BackoffInitialMs {
		return fmt.Errorf("retry.backoff_max_ms must be >= retry.backoff_initial_ms")
	}
	if !c.Services.Wayback.Enabled && !c.Services.ArchiveToday.Enabled {
		return fmt.Errorf("at least one archiving service must be enabled")
	}
	return nil
}

// RetryPolicy converts retry settings into the policy the submitter uses.
func (c Config) RetryPolicy() archive.RetryPolicy {
	return archive.RetryPolicy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   time.Duration(c.Retry.BackoffInitialMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.Retry.BackoffMaxMs) * time.Millisecond,
	}
}

// HTTPTimeout returns the outbound request timeout.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// MinServiceInterval returns the pacing interval between requests to the
// same service.
func (c Config) MinServiceInterval() time.Duration {
	return time.Duration(c.Services.MinIntervalMs) * time.Millisecond
}
