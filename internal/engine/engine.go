// Package engine drives the per-pair pipeline and assembles batch responses.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Mile1005/seo-audit-sub010/internal/metrics"
	"github.com/Mile1005/seo-audit-sub010/internal/serp"
)

// Config controls engine behavior.
type Config struct {
	// Concurrency bounds in-flight pair jobs; each may hold a browser
	// session, so this stays small.
	Concurrency int
	// Topic, when set together with a publisher, receives a snapshot
	// event after each live retrieval.
	Topic string
}

// PairResult is one entry of the batch response map: either a snapshot or an
// error record, never both.
type PairResult struct {
	Snapshot *serp.Snapshot
	Err      *serp.ErrorRecord
}

// MarshalJSON flattens the result into the snapshot or the error record.
func (r PairResult) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(r.Err)
	}
	return json.Marshal(r.Snapshot)
}

// BatchResult is the assembled response for one batch request.
type BatchResult struct {
	Results      map[string]PairResult `json:"results"`
	Usage        int                   `json:"usage"`
	Keywords     int                   `json:"keywords"`
	Countries    int                   `json:"countries"`
	MaxKeywords  int                   `json:"maxKeywords"`
	MaxCountries int                   `json:"maxCountries"`
}

// Engine resolves each pair independently: cache probe, then the provider
// chain on a miss, then cache write-back. One pair's failure never aborts
// its siblings.
type Engine struct {
	cache     serp.CacheStore
	provider  serp.Provider
	publisher serp.Publisher
	clock     serp.Clock
	cfg       Config
	logger    *zap.Logger
}

// New constructs an Engine.
func New(
	cache serp.CacheStore,
	provider serp.Provider,
	publisher serp.Publisher,
	clock serp.Clock,
	cfg Config,
	logger *zap.Logger,
) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cache:     cache,
		provider:  provider,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Process validates, expands, and resolves a batch request. The returned
// error is a ValidationError when the request itself is bad; per-pair
// provider failures land inside the result map instead.
func (e *Engine) Process(ctx context.Context, req serp.BatchRequest) (BatchResult, error) {
	expansion, err := serp.Normalize(req)
	if err != nil {
		return BatchResult{}, err
	}
	metrics.ObserveBatch(len(expansion.Pairs))

	result := BatchResult{
		Results:      make(map[string]PairResult, len(expansion.Pairs)),
		Keywords:     expansion.Keywords,
		Countries:    expansion.Countries,
		MaxKeywords:  serp.MaxKeywords,
		MaxCountries: serp.MaxCountries,
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	for _, pair := range expansion.Pairs {
		g.Go(func() error {
			outcome, live := e.resolvePair(gctx, pair)
			mu.Lock()
			result.Results[pair.Key()] = outcome
			if live {
				result.Usage++
			}
			mu.Unlock()
			// Pair failures are isolated; never cancel siblings.
			return nil
		})
	}
	// Workers only return nil, so Wait is just a join.
	_ = g.Wait()

	return result, nil
}

// resolvePair runs the cache probe and provider chain for one pair. The
// second return value reports whether a live retrieval was performed (cache
// hits do not count toward usage).
func (e *Engine) resolvePair(ctx context.Context, pair serp.WorkPair) (PairResult, bool) {
	key := pair.Key()

	cached, hit, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	metrics.ObserveCacheLookup(hit)
	if hit {
		cached.Cached = true
		return PairResult{Snapshot: &cached}, false
	}

	snapshot, err := e.provider.Fetch(ctx, pair)
	if err != nil {
		e.logger.Warn("pair retrieval failed", zap.String("key", key), zap.Error(err))
		return PairResult{Err: errorRecord(err)}, true
	}
	snapshot.Cached = false

	if err := e.cache.Set(ctx, key, snapshot); err != nil {
		e.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	e.publishEvent(ctx, snapshot)

	return PairResult{Snapshot: &snapshot}, true
}

func (e *Engine) publishEvent(ctx context.Context, snapshot serp.Snapshot) {
	if e.publisher == nil || e.cfg.Topic == "" {
		return
	}
	provider := "scrape"
	if snapshot.UsedFallback {
		provider = "fallback_api"
	}
	event := serp.SnapshotEvent{
		Key:       snapshot.Key(),
		Keyword:   snapshot.Keyword,
		Country:   snapshot.Country,
		Provider:  provider,
		Timestamp: e.clock.Now(),
	}
	if _, err := e.publisher.Publish(ctx, e.cfg.Topic, event); err != nil {
		e.logger.Warn("publish snapshot event failed", zap.String("key", event.Key), zap.Error(err))
	}
}

func errorRecord(err error) *serp.ErrorRecord {
	var fe *serp.FallbackError
	if errors.As(err, &fe) {
		return &serp.ErrorRecord{Error: "fallback provider failed", Details: fe.Error()}
	}
	var se *serp.ScrapeError
	if errors.As(err, &se) {
		return &serp.ErrorRecord{Error: "scrape failed", Details: se.Error()}
	}
	return &serp.ErrorRecord{Error: "retrieval failed", Details: err.Error()}
}
