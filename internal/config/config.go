// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Static   StaticConfig   `mapstructure:"static"`
	Fallback FallbackConfig `mapstructure:"fallback"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// EngineConfig governs batch processing behavior.
type EngineConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// CacheConfig selects and tunes the snapshot cache backend.
type CacheConfig struct {
	Backend  string         `mapstructure:"backend"`
	TTLHours int            `mapstructure:"ttl_hours"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig controls access to the Postgres cache backend.
type PostgresConfig struct {
	DSN          string `mapstructure:"dsn"`
	Table        string `mapstructure:"table"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MinConns     int    `mapstructure:"min_conns"`
}

// ScraperConfig configures the headless-browser provider. Enabled mirrors
// whether browser automation is feasible in the current deployment.
type ScraperConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxParallel   int  `mapstructure:"max_parallel"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
	WaitMinMs     int  `mapstructure:"wait_min_ms"`
	WaitMaxMs     int  `mapstructure:"wait_max_ms"`
}

// StaticConfig configures the plain-HTTP scrape provider.
type StaticConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	BaseURL        string `mapstructure:"base_url"`
}

// FallbackConfig configures the paid results API.
type FallbackConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Endpoint       string `mapstructure:"endpoint"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ArchiveConfig controls raw-markup archiving of captured pages.
type ArchiveConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Backend     string `mapstructure:"backend"`
	GCSBucket   string `mapstructure:"gcs_bucket"`
	Prefix      string `mapstructure:"prefix"`
	ContentType string `mapstructure:"content_type"`
}

// PubSubConfig holds metadata for snapshot-completed notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SERPSNAP")
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
	v.SetDefault("server.port", 8080)
	v.SetDefault("engine.concurrency", 3)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("cache.postgres.table", "serp_snapshots")
	v.SetDefault("scraper.enabled", true)
	v.SetDefault("scraper.max_parallel", 2)
	v.SetDefault("scraper.nav_timeout_seconds", 30)
	v.SetDefault("scraper.wait_min_ms", 2000)
	v.SetDefault("scraper.wait_max_ms", 4000)
	v.SetDefault("static.enabled", false)
	v.SetDefault("static.timeout_seconds", 15)
	v.SetDefault("fallback.endpoint", "https://google.serper.dev/search")
	v.SetDefault("fallback.timeout_seconds", 20)
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.backend", "memory")
	v.SetDefault("archive.prefix", "serps")
	v.SetDefault("archive.content_type", "text/html; charset=utf-8")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Engine.Concurrency <= 0 {
		return fmt.Errorf("engine.concurrency must be > 0")
	}
	if c.Cache.TTLHours <= 0 {
		return fmt.Errorf("cache.ttl_hours must be > 0")
	}
	switch c.Cache.Backend {
	case "memory":
	case "postgres":
		if c.Cache.Postgres.DSN == "" {
			return fmt.Errorf("cache.postgres.dsn must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("cache.backend must be memory or postgres, got %q", c.Cache.Backend)
	}
	if c.Scraper.Enabled {
		if c.Scraper.MaxParallel <= 0 {
			return fmt.Errorf("scraper.max_parallel must be > 0 when the scraper is enabled")
		}
		if c.Scraper.WaitMinMs > c.Scraper.WaitMaxMs {
			return fmt.Errorf("scraper.wait_min_ms must be <= scraper.wait_max_ms")
		}
	}
	if !c.Scraper.Enabled && !c.Static.Enabled && c.Fallback.APIKey == "" {
		return fmt.Errorf("fallback.api_key must be set when no scrape provider is enabled")
	}
	if c.Archive.Enabled && c.Archive.Backend == "gcs" && c.Archive.GCSBucket == "" {
		return fmt.Errorf("archive.gcs_bucket must be set for the gcs backend")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// TTL converts the cache TTL config into a duration.
func (c Config) TTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}
