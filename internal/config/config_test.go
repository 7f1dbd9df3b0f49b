package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Engine.Concurrency != 3 {
		t.Fatalf("expected default concurrency 3, got %d", cfg.Engine.Concurrency)
	}
	if cfg.Cache.Backend != "memory" || cfg.Cache.TTLHours != 24 {
		t.Fatalf("expected memory cache with 24h TTL, got %+v", cfg.Cache)
	}
	if !cfg.Scraper.Enabled || cfg.Scraper.MaxParallel != 2 {
		t.Fatalf("expected scraper enabled with max_parallel 2, got %+v", cfg.Scraper)
	}
	if cfg.Static.Enabled {
		t.Fatalf("expected static provider disabled by default")
	}
	if got := cfg.TTL(); got != 24*time.Hour {
		t.Fatalf("expected TTL 24h, got %v", got)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
auth:
  enabled: true
  api_key: secret
engine:
  concurrency: 5
cache:
  backend: postgres
  ttl_hours: 12
  postgres:
    dsn: postgres://localhost/serp
    table: snapshots
scraper:
  enabled: false
fallback:
  api_key: fallback-secret
  timeout_seconds: 30
archive:
  enabled: true
  backend: gcs
  gcs_bucket: serp-raw
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
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.Auth.Enabled || cfg.Auth.APIKey != "secret" {
		t.Fatalf("expected auth enabled with secret key")
	}
	if cfg.Cache.Backend != "postgres" || cfg.Cache.Postgres.Table != "snapshots" {
		t.Fatalf("expected postgres cache overrides, got %+v", cfg.Cache)
	}
	if cfg.Scraper.Enabled {
		t.Fatalf("expected scraper disabled")
	}
	if cfg.Fallback.APIKey != "fallback-secret" || cfg.Fallback.TimeoutSeconds != 30 {
		t.Fatalf("expected fallback overrides, got %+v", cfg.Fallback)
	}
	if got := cfg.TTL(); got != 12*time.Hour {
		t.Fatalf("expected TTL 12h, got %v", got)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SERPSNAP_SERVER_PORT", "9999")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Fatalf("expected env override port 9999, got %d", cfg.Server.Port)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	t.Parallel()

	base := func() Config {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"zero concurrency", func(c *Config) { c.Engine.Concurrency = 0 }},
		{"zero ttl", func(c *Config) { c.Cache.TTLHours = 0 }},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "redis" }},
		{"postgres without dsn", func(c *Config) { c.Cache.Backend = "postgres" }},
		{"inverted wait bounds", func(c *Config) {
			c.Scraper.WaitMinMs = 5000
			c.Scraper.WaitMaxMs = 2000
		}},
		{"no provider at all", func(c *Config) {
			c.Scraper.Enabled = false
			c.Static.Enabled = false
			c.Fallback.APIKey = ""
		}},
		{"gcs archive without bucket", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.Backend = "gcs"
		}},
		{"auth without key", func(c *Config) { c.Auth.Enabled = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
