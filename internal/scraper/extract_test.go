package scraper

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

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

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func resultBlock(title, href, desc string) string {
	return fmt.Sprintf(
		`<div class="g"><a href=%q><h3>%s</h3></a><div class="VwiC3b">%s</div></div>`,
		href, title, desc,
	)
}

func resultsPage(blocks ...string) string {
	return "<html><body><div id='search'>" + strings.Join(blocks, "\n") + "</div></body></html>"
}

func TestExtractOrganicBasics(t *testing.T) {
	t.Parallel()

	page := resultsPage(
		resultBlock("First", "https://example.com/one", "first description"),
		resultBlock("Second", "https://example.org/two", "second description"),
	)
	ex, err := extractPage(strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, ex.organic, 2)
	require.Equal(t, serp.OrganicResult{
		Title:       "First",
		URL:         "https://example.com/one",
		Description: "first description",
		Position:    1,
	}, ex.organic[0])
	require.Equal(t, 2, ex.organic[1].Position)
}

func TestExtractOrganicFiltersAndDedupes(t *testing.T) {
	t.Parallel()

	page := resultsPage(
		resultBlock("Self link", "https://www.google.com/search?q=more", "skipped"),
		resultBlock("Video", "https://www.youtube.com/watch?v=abc", "skipped"),
		resultBlock("", "https://example.com/untitled", "no title"),
		resultBlock("Kept", "https://example.com/kept", "kept"),
		resultBlock("Duplicate", "https://example.com/kept", "same url"),
		resultBlock("Wrapped", "/url?q=https://example.net/wrapped&sa=U", "redirect link"),
	)
	ex, err := extractPage(strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, ex.organic, 2)
	require.Equal(t, "https://example.com/kept", ex.organic[0].URL)
	require.Equal(t, "https://example.net/wrapped", ex.organic[1].URL)
	// Positions stay dense after filtering.
	require.Equal(t, 1, ex.organic[0].Position)
	require.Equal(t, 2, ex.organic[1].Position)
}

func TestExtractOrganicCapsAtTen(t *testing.T) {
	t.Parallel()

	var blocks []string
	for i := 0; i < 15; i++ {
		blocks = append(blocks, resultBlock(
			fmt.Sprintf("Result %d", i),
			fmt.Sprintf("https://example.com/%d", i),
			"desc",
		))
	}
	ex, err := extractPage(strings.NewReader(resultsPage(blocks...)))
	require.NoError(t, err)
	require.Len(t, ex.organic, maxOrganicResults)
	require.Equal(t, 10, ex.organic[9].Position)
}

func TestExtractAuxiliarySections(t *testing.T) {
	t.Parallel()

	page := resultsPage(
		`<div class="xpdopen"><h3>Answer</h3><span class="hgKElc">The answer text.</span><a href="https://example.com/answer">src</a></div>`,
		`<div data-text-ad="1"><div role="heading">Sponsored</div><a href="https://ads.example.com/click">ad</a><div class="MUxGbd">buy now</div></div>`,
		`<div class="related-question-pair" data-q="what is seo"></div>`,
		resultBlock("Organic", "https://example.com/organic", "desc"),
		`<div id="botstuff"><a href="/search?q=seo+tips">seo tips</a><a href="/search?q=seo+tools">seo tools</a><a href="/search?q=seo+tips">seo tips</a></div>`,
	)
	ex, err := extractPage(strings.NewReader(page))
	require.NoError(t, err)

	require.NotNil(t, ex.featured)
	require.Equal(t, "The answer text.", ex.featured.Snippet)
	require.Equal(t, "https://example.com/answer", ex.featured.URL)

	require.Len(t, ex.ads, 1)
	require.Equal(t, "Sponsored", ex.ads[0].Title)
	require.Equal(t, "https://ads.example.com/click", ex.ads[0].URL)

	require.Len(t, ex.peopleAlsoAsk, 1)
	require.Equal(t, "what is seo", ex.peopleAlsoAsk[0].Question)

	require.Equal(t, []string{"seo tips", "seo tools"}, ex.related)
}

func TestExtractEmptyPage(t *testing.T) {
	t.Parallel()

	ex, err := extractPage(strings.NewReader("<html><body></body></html>"))
	require.NoError(t, err)
	require.Empty(t, ex.organic)
	require.Nil(t, ex.featured)
}

func TestBuildSnapshotDefaultsEmptySections(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	pair := serp.WorkPair{Keyword: " SEO Tools ", Country: "US"}
	snapshot := buildSnapshot(pair, pageExtract{}, clock)

	require.Equal(t, "SEO Tools", snapshot.Keyword)
	require.Equal(t, "us", snapshot.Country)
	require.NotNil(t, snapshot.OrganicResults)
	require.NotNil(t, snapshot.Ads)
	require.NotNil(t, snapshot.PeopleAlsoAsk)
	require.NotNil(t, snapshot.RelatedSearches)
	require.NotNil(t, snapshot.LocalResults)
	require.NotNil(t, snapshot.Sitelinks)
	require.False(t, snapshot.UsedFallback)
	require.Equal(t, clock.Now(), snapshot.Timestamp)
}
