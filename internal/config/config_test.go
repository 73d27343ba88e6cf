package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Path != "archived_links.json" {
		t.Fatalf("expected default log path, got %q", cfg.Log.Path)
	}
	if !cfg.Services.Wayback.Enabled || !cfg.Services.ArchiveToday.Enabled {
		t.Fatalf("expected both services enabled by default: %+v", cfg.Services)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Fatalf("expected 3 retry attempts, got %d", cfg.Retry.MaxAttempts)
	}
	if got := cfg.HTTPTimeout(); got != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %v", got)
	}
	if got := cfg.MinServiceInterval(); got != 2*time.Second {
		t.Fatalf("expected 2s service interval, got %v", got)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
log:
  path: out/links.json
http:
  timeout_seconds: 45
  user_agents: ["test-agent/1.0"]
retry:
  max_attempts: 5
  backoff_initial_ms: 100
  backoff_max_ms: 500
services:
  wayback:
    enabled: true
    endpoint: http://localhost:9001
  archive_today:
    enabled: false
  min_interval_ms: 10
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Path != "out/links.json" {
		t.Fatalf("expected log path override, got %q", cfg.Log.Path)
	}
	if cfg.Services.ArchiveToday.Enabled {
		t.Fatalf("expected archive_today disabled")
	}
	if cfg.Services.Wayback.Endpoint != "http://localhost:9001" {
		t.Fatalf("expected wayback endpoint override, got %q", cfg.Services.Wayback.Endpoint)
	}
	if len(cfg.HTTP.UserAgents) != 1 || cfg.HTTP.UserAgents[0] != "test-agent/1.0" {
		t.Fatalf("expected user agent override, got %v", cfg.HTTP.UserAgents)
	}

	policy := cfg.RetryPolicy()
	if policy.MaxAttempts != 5 || policy.BaseDelay != 100*time.Millisecond || policy.MaxDelay != 500*time.Millisecond {
		t.Fatalf("unexpected retry policy: %+v", policy)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Log:   LogConfig{Path: "archived_links.json"},
		HTTP:  HTTPConfig{TimeoutSeconds: 10},
		Retry: RetryConfig{MaxAttempts: 3, BackoffInitialMs: 100, BackoffMaxMs: 500},
		Services: ServicesConfig{
			Wayback: ServiceConfig{Enabled: true},
		},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "missing log path",
			cfg: func() Config {
				c := base
				c.Log.Path = " "
				return c
			}(),
			want: "log.path",
		},
		{
			name: "invalid timeout",
			cfg: func() Config {
				c := base
				c.HTTP.TimeoutSeconds = 0
				return c
			}(),
			want: "http.timeout_seconds",
		},
		{
			name: "invalid attempts",
			cfg: func() Config {
				c := base
				c.Retry.MaxAttempts = 0
				return c
			}(),
			want: "retry.max_attempts",
		},
		{
			name: "backoff ceiling below base",
			cfg: func() Config {
				c := base
				c.Retry.BackoffMaxMs = 50
				return c
			}(),
			want: "retry.backoff_max_ms",
		},
		{
			name: "no services enabled",
			cfg: func() Config {
				c := base
				c.Services.Wayback.Enabled = false
				return c
			}(),
			want: "archiving service",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
