package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/Mile1005/seo-audit-sub010/internal/serp"
)

// StaticConfig controls the plain-HTTP scrape provider.
type StaticConfig struct {
	Timeout    time.Duration
	UserAgents []string
	// BaseURL, when set, sends every query to this base instead of the
	// per-country search domain (for prerender/proxy deployments).
	BaseURL string
}

// Static implements serp.Provider with a plain HTTP fetch via Colly. It is a
// lightweight middle tier for deployments where a full browser is
// unnecessary; failures are retryable ScrapeErrors like the browser path.
type Static struct {
	cfg           StaticConfig
	agents        *agentPool
	clock         serp.Clock
	archive       *Archiver
	logger        *zap.Logger
	baseCollector *colly.Collector
}

// NewStatic builds a Static provider.
func NewStatic(cfg StaticConfig, clock serp.Clock, archive *Archiver, logger *zap.Logger) *Static {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())

	return &Static{
		cfg:           cfg,
		agents:        newAgentPool(cfg.UserAgents),
		clock:         clock,
		archive:       archive,
		logger:        logger,
		baseCollector: c,
	}
}

// Name identifies the provider in logs, metrics, and chain ordering.
func (s *Static) Name() string {
	return "static"
}

// Fetch performs a single HTTP GET of the results page and extracts it.
func (s *Static) Fetch(ctx context.Context, pair serp.WorkPair) (serp.Snapshot, error) {
	body, err := s.fetchPage(ctx, s.searchURL(pair))
	if err != nil {
		return serp.Snapshot{}, &serp.ScrapeError{Provider: s.Name(), Pair: pair, Err: err}
	}

	s.archive.Save(ctx, pair.Key(), body)

	ex, err := extractPage(bytes.NewReader(body))
	if err != nil {
		return serp.Snapshot{}, &serp.ScrapeError{Provider: s.Name(), Pair: pair, Err: err}
	}
	if len(ex.organic) == 0 {
		return serp.Snapshot{}, &serp.ScrapeError{
			Provider: s.Name(),
			Pair:     pair,
			Err:      fmt.Errorf("no organic results extracted"),
		}
	}

	s.logger.Debug("static scrape succeeded",
		zap.String("key", pair.Key()),
		zap.Int("organic", len(ex.organic)),
	)
	return buildSnapshot(pair, ex, s.clock), nil
}

func (s *Static) searchURL(pair serp.WorkPair) string {
	if s.cfg.BaseURL != "" {
		return fmt.Sprintf("%s/search?q=%s&num=%d", s.cfg.BaseURL, url.QueryEscape(pair.Keyword), maxOrganicResults)
	}
	return SearchURL(pair.Keyword, pair.Country)
}

func (s *Static) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	collector := s.baseCollector.Clone()
	collector.UserAgent = s.agents.Next()
	collector.SetRequestTimeout(s.cfg.Timeout)

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(pageURL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("static fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("visit results page: %w", err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("results page response: %w", fetchErr)
		}
		return body, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
