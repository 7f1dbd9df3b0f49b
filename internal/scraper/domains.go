// Package scraper implements the live search-results providers: a headless
// browser scraper and a plain-HTTP static scraper sharing one DOM extractor.
package scraper

import (
	"fmt"
	"net/url"
	"strings"
)

// searchDomains maps two-letter country codes to the search engine's
// localized domain. Unmapped codes fall back to defaultSearchDomain.
var searchDomains = map[string]string{
	"us": "www.google.com",
	"uk": "www.google.co.uk",
	"ca": "www.google.ca",
	"au": "www.google.com.au",
	"de": "www.google.de",
	"fr": "www.google.fr",
	"es": "www.google.es",
	"it": "www.google.it",
	"nl": "www.google.nl",
	"br": "www.google.com.br",
	"in": "www.google.co.in",
	"jp": "www.google.co.jp",
	"mx": "www.google.com.mx",
}

const defaultSearchDomain = "www.google.com"

const maxOrganicResults = 10

// SearchDomain returns the localized search domain for a country code.
func SearchDomain(country string) string {
	if domain, ok := searchDomains[strings.ToLower(strings.TrimSpace(country))]; ok {
		return domain
	}
	return defaultSearchDomain
}

// SearchURL builds the results-page URL for a pair.
func SearchURL(keyword, country string) string {
	return fmt.Sprintf(
		"https://%s/search?q=%s&num=%d&pws=0",
		SearchDomain(country),
		url.QueryEscape(strings.TrimSpace(keyword)),
		maxOrganicResults,
	)
}

// excludedURL reports whether a candidate result link must be discarded:
// self-referential search-engine links (including the map service) and the
// video platform. Unparseable or host-less links are discarded too.
func excludedURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return true
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return true
	}
	if strings.Contains(host, "google.") {
		return true
	}
	for _, ex := range []string{"youtube.com", "youtu.be"} {
		if host == ex || strings.HasSuffix(host, "."+ex) {
			return true
		}
	}
	return false
}

// resolveResultURL unwraps the search engine's redirect links (/url?q=...)
// and returns the target, or "" when no absolute target can be recovered.
func resolveResultURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Path == "/url" {
		if target := u.Query().Get("q"); target != "" {
			raw = target
			if u, err = url.Parse(raw); err != nil {
				return ""
			}
		}
	}
	if !u.IsAbs() {
		return ""
	}
	return raw
}
