package scraper

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Mile1005/seo-audit-sub010/internal/serp"
)

// pageExtract holds everything pulled out of one captured results page.
type pageExtract struct {
	organic       []serp.OrganicResult
	ads           []serp.Ad
	featured      *serp.FeaturedSnippet
	peopleAlsoAsk []serp.RelatedQuestion
	related       []string
	sitelinks     []serp.Sitelink
}

// extractPage parses captured markup with structural DOM queries only.
// Candidates missing a title or url, or pointing at an excluded domain, are
// discarded; surviving results get dense positions 1..N with N <= 10.
func extractPage(r io.Reader) (pageExtract, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return pageExtract{}, fmt.Errorf("parse markup: %w", err)
	}

	var ex pageExtract
	ex.organic = extractOrganic(doc)
	ex.ads = extractAds(doc)
	ex.featured = extractFeatured(doc)
	ex.peopleAlsoAsk = extractPeopleAlsoAsk(doc)
	ex.related = extractRelated(doc)
	ex.sitelinks = extractSitelinks(doc)
	return ex, nil
}

func extractOrganic(doc *goquery.Document) []serp.OrganicResult {
	var results []serp.OrganicResult
	seen := make(map[string]struct{})

	doc.Find("div.g, div[data-sokoban-container]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := strings.TrimSpace(s.Find("h3").First().Text())
		href := s.Find("a[href]").First().AttrOr("href", "")
		target := resolveResultURL(href)
		if title == "" || target == "" || excludedURL(target) {
			return true
		}
		if _, dup := seen[target]; dup {
			return true
		}
		seen[target] = struct{}{}

		desc := strings.TrimSpace(s.Find("div.VwiC3b, div[data-sncf], span.aCOpRe, div[role='doc-subtitle']").First().Text())
		results = append(results, serp.OrganicResult{
			Title:       title,
			URL:         target,
			Description: desc,
			Position:    len(results) + 1,
		})
		return len(results) < maxOrganicResults
	})
	return results
}

func extractAds(doc *goquery.Document) []serp.Ad {
	var ads []serp.Ad
	doc.Find("div[data-text-ad], #tads div.uEierd").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find("div[role='heading'], span.OSrXXb, h3").First().Text())
		href := resolveResultURL(s.Find("a[href]").First().AttrOr("href", ""))
		if title == "" || href == "" {
			return
		}
		ads = append(ads, serp.Ad{
			Title:       title,
			URL:         href,
			Description: strings.TrimSpace(s.Find("div.MUxGbd").First().Text()),
		})
	})
	return ads
}

func extractFeatured(doc *goquery.Document) *serp.FeaturedSnippet {
	block := doc.Find("div.xpdopen, block-component").First()
	if block.Length() == 0 {
		return nil
	}
	snippet := strings.TrimSpace(block.Find("span.hgKElc, div[data-attrid='wa:/description']").First().Text())
	if snippet == "" {
		return nil
	}
	return &serp.FeaturedSnippet{
		Title:   strings.TrimSpace(block.Find("h3").First().Text()),
		Snippet: snippet,
		URL:     resolveResultURL(block.Find("a[href]").First().AttrOr("href", "")),
	}
}

func extractPeopleAlsoAsk(doc *goquery.Document) []serp.RelatedQuestion {
	var questions []serp.RelatedQuestion
	doc.Find("div.related-question-pair").Each(func(_ int, s *goquery.Selection) {
		question := strings.TrimSpace(s.AttrOr("data-q", ""))
		if question == "" {
			question = strings.TrimSpace(s.Find("span").First().Text())
		}
		if question == "" {
			return
		}
		questions = append(questions, serp.RelatedQuestion{Question: question})
	})
	return questions
}

func extractRelated(doc *goquery.Document) []string {
	var related []string
	seen := make(map[string]struct{})
	doc.Find("div#botstuff a, a.k8XOCe").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		related = append(related, text)
	})
	return related
}

func extractSitelinks(doc *goquery.Document) []serp.Sitelink {
	var links []serp.Sitelink
	doc.Find("div.g table a[href], div.usJj9c a[href]").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Text())
		href := resolveResultURL(s.AttrOr("href", ""))
		if title == "" || href == "" || excludedURL(href) {
			return
		}
		links = append(links, serp.Sitelink{Title: title, URL: href})
	})
	return links
}

// buildSnapshot assembles the common snapshot shape from one extraction.
// Missing auxiliary sections default to empty slices so the JSON shape is
// stable across providers.
func buildSnapshot(pair serp.WorkPair, ex pageExtract, clock serp.Clock) serp.Snapshot {
	snapshot := serp.Snapshot{
		Keyword:         strings.TrimSpace(pair.Keyword),
		Country:         strings.ToLower(strings.TrimSpace(pair.Country)),
		OrganicResults:  ex.organic,
		Ads:             ex.ads,
		FeaturedSnippet: ex.featured,
		PeopleAlsoAsk:   ex.peopleAlsoAsk,
		RelatedSearches: ex.related,
		LocalResults:    []serp.LocalResult{},
		Sitelinks:       ex.sitelinks,
		Timestamp:       clock.Now(),
	}
	if snapshot.OrganicResults == nil {
		snapshot.OrganicResults = []serp.OrganicResult{}
	}
	if snapshot.Ads == nil {
		snapshot.Ads = []serp.Ad{}
	}
	if snapshot.PeopleAlsoAsk == nil {
		snapshot.PeopleAlsoAsk = []serp.RelatedQuestion{}
	}
	if snapshot.RelatedSearches == nil {
		snapshot.RelatedSearches = []string{}
	}
	if snapshot.Sitelinks == nil {
		snapshot.Sitelinks = []serp.Sitelink{}
	}
	return snapshot
}
