// Package postgres provides a Postgres-backed snapshot cache for
// multi-instance deployments.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mile1005/seo-audit-sub010/internal/serp"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for cache rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// Cache stores snapshots in a Postgres table keyed by snapshot key.
// Expired rows are reported as misses; they are overwritten in place on the
// next successful retrieval rather than deleted.
type Cache struct {
	pool  pool
	table string
	ttl   time.Duration
	clock serp.Clock
}

// New creates a Postgres-backed Cache using the provided config.
func New(ctx context.Context, cfg Config, ttl time.Duration, clock serp.Clock) (*Cache, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("cache.postgres.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "serp_snapshots"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Cache{pool: p, table: table, ttl: ttl, clock: clock}, nil
}

// NewWithPool constructs a Cache from an existing pool (primarily for testing).
func NewWithPool(p pool, table string, ttl time.Duration, clock serp.Clock) (*Cache, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "serp_snapshots"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Cache{pool: p, table: table, ttl: ttl, clock: clock}, nil
}

// Close releases the underlying pool resources.
func (c *Cache) Close() {
	if c == nil || c.pool == nil {
		return
	}
	c.pool.Close()
}

// Get looks up the snapshot for key. The TTL check happens here: a row older
// than the TTL is a logical miss regardless of its physical presence.
func (c *Cache) Get(ctx context.Context, key string) (serp.Snapshot, bool, error) {
	query := fmt.Sprintf(`SELECT snapshot, stored_at FROM %s WHERE snapshot_key = $1`, c.table)

	var (
		raw      []byte
		storedAt time.Time
	)
	if err := c.pool.QueryRow(ctx, query, key).Scan(&raw, &storedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return serp.Snapshot{}, false, nil
		}
		return serp.Snapshot{}, false, fmt.Errorf("select snapshot: %w", err)
	}
	if c.clock.Now().Sub(storedAt) >= c.ttl {
		return serp.Snapshot{}, false, nil
	}
	var snapshot serp.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return serp.Snapshot{}, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snapshot, true, nil
}

// Set upserts a snapshot row, overwriting (not merging) any previous entry.
func (c *Cache) Set(ctx context.Context, key string, snapshot serp.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (snapshot_key, snapshot, stored_at)
VALUES ($1, $2, $3)
ON CONFLICT (snapshot_key)
DO UPDATE SET snapshot = EXCLUDED.snapshot, stored_at = EXCLUDED.stored_at`, c.table)

	if _, err := c.pool.Exec(ctx, query, key, raw, c.clock.Now()); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}
