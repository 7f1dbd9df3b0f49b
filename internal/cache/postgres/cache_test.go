package postgres

import (
	"context"
	"encoding/json"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/Mile1005/seo-audit-sub010/internal/serp"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

const (
	selectQuery = `SELECT snapshot, stored_at FROM serp_snapshots WHERE snapshot_key = $1`
	upsertQuery = `INSERT INTO serp_snapshots (snapshot_key, snapshot, stored_at)`
)

func newTestCache(t *testing.T, clock serp.Clock) (*Cache, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	cache, err := NewWithPool(mock, "", 24*time.Hour, clock)
	require.NoError(t, err)
	return cache, mock
}

func TestNewWithPoolRejectsBadTableName(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "snapshots; DROP TABLE", time.Hour, newFakeClock())
	require.Error(t, err)
}

func TestGetMissOnNoRows(t *testing.T) {
	t.Parallel()

	cache, mock := newTestCache(t, newFakeClock())
	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("seo:us").
		WillReturnError(pgx.ErrNoRows)

	_, hit, err := cache.Get(context.Background(), "seo:us")
	require.NoError(t, err)
	require.False(t, hit)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHitWithinTTL(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cache, mock := newTestCache(t, clock)

	stored := serp.Snapshot{Keyword: "seo", Country: "us"}
	raw, err := json.Marshal(stored)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("seo:us").
		WillReturnRows(pgxmock.NewRows([]string{"snapshot", "stored_at"}).
			AddRow(raw, clock.Now().Add(-23*time.Hour)))

	got, hit, err := cache.Get(context.Background(), "seo:us")
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, "seo", got.Keyword)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissOnExpiredRow(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cache, mock := newTestCache(t, clock)

	raw, err := json.Marshal(serp.Snapshot{Keyword: "seo", Country: "us"})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("seo:us").
		WillReturnRows(pgxmock.NewRows([]string{"snapshot", "stored_at"}).
			AddRow(raw, clock.Now().Add(-24*time.Hour)))

	_, hit, err := cache.Get(context.Background(), "seo:us")
	require.NoError(t, err)
	require.False(t, hit)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetUpserts(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cache, mock := newTestCache(t, clock)

	mock.ExpectExec(regexp.QuoteMeta(upsertQuery)).
		WithArgs("seo:us", pgxmock.AnyArg(), clock.Now()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := cache.Set(context.Background(), "seo:us", serp.Snapshot{Keyword: "seo", Country: "us"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
