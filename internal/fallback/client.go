// Package fallback implements the paid results-API provider used when
// browser scraping is unavailable or fails.
package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Mile1005/seo-audit-sub010/internal/serp"
)

const defaultEndpoint = "https://google.serper.dev/search"

// locale is the provider's own country parameterization: gl selects the
// country, hl the interface language. Unmapped codes fall back to us/en.
type locale struct {
	GL string
	HL string
}

var locales = map[string]locale{
	"us": {GL: "us", HL: "en"},
	"uk": {GL: "gb", HL: "en"},
	"ca": {GL: "ca", HL: "en"},
	"au": {GL: "au", HL: "en"},
	"de": {GL: "de", HL: "de"},
	"fr": {GL: "fr", HL: "fr"},
	"es": {GL: "es", HL: "es"},
	"it": {GL: "it", HL: "it"},
	"nl": {GL: "nl", HL: "nl"},
	"br": {GL: "br", HL: "pt-br"},
	"in": {GL: "in", HL: "en"},
	"jp": {GL: "jp", HL: "ja"},
	"mx": {GL: "mx", HL: "es"},
}

var defaultLocale = locale{GL: "us", HL: "en"}

// Config controls the fallback client.
type Config struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// Client calls the paid results API and normalizes its payload into the
// common snapshot shape.
type Client struct {
	cfg        Config
	httpClient *http.Client
	clock      serp.Clock
	logger     *zap.Logger
}

// New builds a Client. A missing credential is a startup concern, not a
// per-request retry target, so it fails here.
func New(cfg Config, clock serp.Clock, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("fallback api key is not configured")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		clock:      clock,
		logger:     logger,
	}, nil
}

// Name identifies the provider in logs, metrics, and chain ordering.
func (c *Client) Name() string {
	return "fallback_api"
}

type apiRequest struct {
	Q   string `json:"q"`
	GL  string `json:"gl"`
	HL  string `json:"hl"`
	Num int    `json:"num"`
}

type apiResponse struct {
	Organic []struct {
		Title     string `json:"title"`
		Link      string `json:"link"`
		Snippet   string `json:"snippet"`
		Position  int    `json:"position"`
		Sitelinks []struct {
			Title string `json:"title"`
			Link  string `json:"link"`
		} `json:"sitelinks"`
	} `json:"organic"`
	Ads []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Description string `json:"description"`
	} `json:"ads"`
	AnswerBox *struct {
		Title   string `json:"title"`
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"answerBox"`
	PeopleAlsoAsk []struct {
		Question string `json:"question"`
		Snippet  string `json:"snippet"`
		Link     string `json:"link"`
	} `json:"peopleAlsoAsk"`
	RelatedSearches []struct {
		Query string `json:"query"`
	} `json:"relatedSearches"`
	Places []struct {
		Title   string `json:"title"`
		Address string `json:"address"`
		Rating  any    `json:"rating"`
	} `json:"places"`
	KnowledgeGraph *struct {
		Title       string            `json:"title"`
		Type        string            `json:"type"`
		Description string            `json:"description"`
		Attributes  map[string]string `json:"attributes"`
	} `json:"knowledgeGraph"`
}

// Fetch queries the API for one pair. Every failure is a terminal
// FallbackError: there is nothing further in the chain to fall through to.
func (c *Client) Fetch(ctx context.Context, pair serp.WorkPair) (serp.Snapshot, error) {
	loc := localeFor(pair.Country)
	payload, err := json.Marshal(apiRequest{
		Q:   strings.TrimSpace(pair.Keyword),
		GL:  loc.GL,
		HL:  loc.HL,
		Num: 10,
	})
	if err != nil {
		return serp.Snapshot{}, &serp.FallbackError{Pair: pair, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return serp.Snapshot{}, &serp.FallbackError{Pair: pair, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("X-API-KEY", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return serp.Snapshot{}, &serp.FallbackError{Pair: pair, Err: fmt.Errorf("call results api: %w", err)}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("close response body failed", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return serp.Snapshot{}, &serp.FallbackError{
			Pair: pair,
			Err:  fmt.Errorf("results api returned status %d", resp.StatusCode),
		}
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return serp.Snapshot{}, &serp.FallbackError{Pair: pair, Err: fmt.Errorf("decode response: %w", err)}
	}
	if body.Organic == nil {
		return serp.Snapshot{}, &serp.FallbackError{
			Pair: pair,
			Err:  fmt.Errorf("response payload is missing the organic results field"),
		}
	}

	return c.normalize(pair, body), nil
}

func (c *Client) normalize(pair serp.WorkPair, body apiResponse) serp.Snapshot {
	snapshot := serp.Snapshot{
		Keyword:         strings.TrimSpace(pair.Keyword),
		Country:         strings.ToLower(strings.TrimSpace(pair.Country)),
		OrganicResults:  []serp.OrganicResult{},
		Ads:             []serp.Ad{},
		PeopleAlsoAsk:   []serp.RelatedQuestion{},
		RelatedSearches: []string{},
		LocalResults:    []serp.LocalResult{},
		Sitelinks:       []serp.Sitelink{},
		UsedFallback:    true,
		Timestamp:       c.clock.Now(),
	}

	for _, entry := range body.Organic {
		if len(snapshot.OrganicResults) == 10 {
			break
		}
		if entry.Title == "" || entry.Link == "" {
			continue
		}
		snapshot.OrganicResults = append(snapshot.OrganicResults, serp.OrganicResult{
			Title:       entry.Title,
			URL:         entry.Link,
			Description: entry.Snippet,
			Position:    len(snapshot.OrganicResults) + 1,
		})
		for _, sl := range entry.Sitelinks {
			if sl.Title == "" || sl.Link == "" {
				continue
			}
			snapshot.Sitelinks = append(snapshot.Sitelinks, serp.Sitelink{Title: sl.Title, URL: sl.Link})
		}
	}

	for _, ad := range body.Ads {
		if ad.Title == "" || ad.Link == "" {
			continue
		}
		snapshot.Ads = append(snapshot.Ads, serp.Ad{Title: ad.Title, URL: ad.Link, Description: ad.Description})
	}

	if box := body.AnswerBox; box != nil {
		snippet := box.Answer
		if snippet == "" {
			snippet = box.Snippet
		}
		if snippet != "" {
			snapshot.FeaturedSnippet = &serp.FeaturedSnippet{Title: box.Title, Snippet: snippet, URL: box.Link}
		}
	}

	for _, q := range body.PeopleAlsoAsk {
		if q.Question == "" {
			continue
		}
		snapshot.PeopleAlsoAsk = append(snapshot.PeopleAlsoAsk, serp.RelatedQuestion{
			Question: q.Question,
			Snippet:  q.Snippet,
			URL:      q.Link,
		})
	}

	for _, rs := range body.RelatedSearches {
		if rs.Query == "" {
			continue
		}
		snapshot.RelatedSearches = append(snapshot.RelatedSearches, rs.Query)
	}

	for _, place := range body.Places {
		if place.Title == "" {
			continue
		}
		local := serp.LocalResult{Title: place.Title, Address: place.Address}
		if place.Rating != nil {
			local.Rating = fmt.Sprint(place.Rating)
		}
		snapshot.LocalResults = append(snapshot.LocalResults, local)
	}

	if kg := body.KnowledgeGraph; kg != nil && kg.Title != "" {
		snapshot.KnowledgeGraph = &serp.KnowledgeGraph{
			Title:       kg.Title,
			Type:        kg.Type,
			Description: kg.Description,
			Attributes:  kg.Attributes,
		}
	}

	return snapshot
}

func localeFor(country string) locale {
	if loc, ok := locales[strings.ToLower(strings.TrimSpace(country))]; ok {
		return loc
	}
	return defaultLocale
}
