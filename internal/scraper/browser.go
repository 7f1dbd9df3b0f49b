package scraper

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Mile1005/seo-audit-sub010/internal/serp"
)

// BrowserConfig controls the behavior of the headless-browser provider.
type BrowserConfig struct {
	MaxParallel       int
	NavigationTimeout time.Duration
	WaitMin           time.Duration
	WaitMax           time.Duration
	UserAgents        []string
}

// Browser implements serp.Provider by driving a headless Chrome session per
// pair. Sessions are never shared across pairs; each Fetch opens a scoped
// task context and cancels it on every exit path.
type Browser struct {
	cfg         BrowserConfig
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
	agents      *agentPool
	clock       serp.Clock
	archive     *Archiver
	logger      *zap.Logger
	// run executes the task actions; swapped out in tests to observe
	// session teardown without launching Chrome.
	run func(ctx context.Context, actions ...chromedp.Action) error
}

// NewBrowser creates a headless provider backed by chromedp.
func NewBrowser(cfg BrowserConfig, clock serp.Clock, archive *Archiver, logger *zap.Logger) (*Browser, error) {
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max parallel must be >= 0")
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	if cfg.WaitMin <= 0 {
		cfg.WaitMin = 2 * time.Second
	}
	if cfg.WaitMax < cfg.WaitMin {
		cfg.WaitMax = cfg.WaitMin + 2*time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Browser{
		cfg:         cfg,
		limiter:     limiter,
		allocator:   allocCtx,
		allocCancel: allocCancel,
		agents:      newAgentPool(cfg.UserAgents),
		clock:       clock,
		archive:     archive,
		logger:      logger,
		run:         chromedp.Run,
	}, nil
}

// Close cancels the allocator context, tearing down the browser process.
func (b *Browser) Close() {
	b.allocCancel()
}

// Name identifies the provider in logs, metrics, and chain ordering.
func (b *Browser) Name() string {
	return "browser"
}

// Fetch renders the results page for one pair and extracts up to ten organic
// results. All failures surface as retryable ScrapeErrors.
func (b *Browser) Fetch(ctx context.Context, pair serp.WorkPair) (serp.Snapshot, error) {
	if err := b.acquire(ctx); err != nil {
		return serp.Snapshot{}, &serp.ScrapeError{Provider: b.Name(), Pair: pair, Err: err}
	}
	defer b.release()

	taskCtx, taskCancel := chromedp.NewContext(b.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, b.cfg.NavigationTimeout+b.cfg.WaitMax)
	defer cancel()

	searchURL := SearchURL(pair.Keyword, pair.Country)
	html, err := b.capture(taskCtx, searchURL)
	if err != nil {
		return serp.Snapshot{}, &serp.ScrapeError{Provider: b.Name(), Pair: pair, Err: err}
	}

	b.archive.Save(ctx, pair.Key(), []byte(html))

	ex, err := extractPage(strings.NewReader(html))
	if err != nil {
		return serp.Snapshot{}, &serp.ScrapeError{Provider: b.Name(), Pair: pair, Err: err}
	}
	if len(ex.organic) == 0 {
		return serp.Snapshot{}, &serp.ScrapeError{
			Provider: b.Name(),
			Pair:     pair,
			Err:      fmt.Errorf("no organic results extracted"),
		}
	}

	b.logger.Debug("browser scrape succeeded",
		zap.String("key", pair.Key()),
		zap.Int("organic", len(ex.organic)),
	)
	return buildSnapshot(pair, ex, b.clock), nil
}

func (b *Browser) capture(ctx context.Context, searchURL string) (string, error) {
	var html string
	actions := []chromedp.Action{
		emulation.SetUserAgentOverride(b.agents.Next()),
		chromedp.Navigate(searchURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Client-side rendering settles during a short randomized wait.
		chromedp.Sleep(b.renderWait()),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := b.run(ctx, actions...); err != nil {
		return "", fmt.Errorf("chromedp run: %w", err)
	}
	return html, nil
}

func (b *Browser) renderWait() time.Duration {
	spread := b.cfg.WaitMax - b.cfg.WaitMin
	if spread <= 0 {
		return b.cfg.WaitMin
	}
	return b.cfg.WaitMin + time.Duration(rand.Int63n(int64(spread)))
}

func (b *Browser) acquire(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	select {
	case b.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("browser slot wait canceled: %w", ctx.Err())
	}
}

func (b *Browser) release() {
	if b.limiter == nil {
		return
	}
	select {
	case <-b.limiter:
	default:
	}
}
