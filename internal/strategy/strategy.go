// Package strategy selects and sequences retrieval providers.
package strategy

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Mile1005/seo-audit-sub010/internal/metrics"
	"github.com/Mile1005/seo-audit-sub010/internal/serp"
)

// Chain tries an ordered list of providers for each pair. A retryable
// failure (scrape error) falls through to the next provider; a terminal
// failure (fallback API error) surfaces immediately. The chain is fixed at
// construction from deployment context rather than branching per call.
type Chain struct {
	providers []serp.Provider
	logger    *zap.Logger
}

// New builds a chain over the given providers, in order.
func New(logger *zap.Logger, providers ...serp.Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one provider is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{providers: providers, logger: logger}, nil
}

// NewBrowserFirst is the default policy: scrape with the browser, fall
// through to the paid API on scrape failure.
func NewBrowserFirst(browser, api serp.Provider, logger *zap.Logger) (*Chain, error) {
	return New(logger, browser, api)
}

// NewAPIOnly routes every pair directly to the paid API, for deployments
// where launching a browser is infeasible.
func NewAPIOnly(api serp.Provider, logger *zap.Logger) (*Chain, error) {
	return New(logger, api)
}

// Name identifies the chain when it is used as a provider itself.
func (c *Chain) Name() string {
	return "chain"
}

// Fetch resolves one pair through the provider sequence.
func (c *Chain) Fetch(ctx context.Context, pair serp.WorkPair) (serp.Snapshot, error) {
	var lastErr error
	for _, provider := range c.providers {
		start := time.Now()
		snapshot, err := provider.Fetch(ctx, pair)
		if err == nil {
			metrics.ObserveSnapshot(provider.Name(), "success", time.Since(start))
			return snapshot, nil
		}
		metrics.ObserveSnapshot(provider.Name(), "error", time.Since(start))
		lastErr = err
		if !serp.Retryable(err) {
			return serp.Snapshot{}, err
		}
		c.logger.Warn("provider failed, falling through",
			zap.String("provider", provider.Name()),
			zap.String("key", pair.Key()),
			zap.Error(err),
		)
	}
	return serp.Snapshot{}, lastErr
}
