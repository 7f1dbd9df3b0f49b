// Package serp defines core types shared across subsystems.
package serp

import (
	"strings"
	"time"
)

// WorkPair is the atomic unit of retrieval: one keyword in one country.
type WorkPair struct {
	Keyword string `json:"keyword"`
	Country string `json:"country"`
}

// Key derives the snapshot key for a pair. Pairs differing only in case or
// surrounding whitespace collapse to the same key.
func (p WorkPair) Key() string {
	return strings.ToLower(strings.TrimSpace(p.Keyword)) + ":" + strings.ToLower(strings.TrimSpace(p.Country))
}

// OrganicResult is one unpaid, ranked listing on a results page.
type OrganicResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Position    int    `json:"position"`
}

// Ad is a paid listing.
type Ad struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// FeaturedSnippet is the answer box shown above organic results.
type FeaturedSnippet struct {
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet"`
	URL     string `json:"url,omitempty"`
}

// RelatedQuestion is one "people also ask" entry.
type RelatedQuestion struct {
	Question string `json:"question"`
	Snippet  string `json:"snippet,omitempty"`
	URL      string `json:"url,omitempty"`
}

// LocalResult is one map-pack entry.
type LocalResult struct {
	Title   string `json:"title"`
	Address string `json:"address,omitempty"`
	Rating  string `json:"rating,omitempty"`
}

// KnowledgeGraph is the entity panel, when present.
type KnowledgeGraph struct {
	Title       string            `json:"title"`
	Type        string            `json:"type,omitempty"`
	Description string            `json:"description,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Sitelink is a sub-link attached to a top organic result.
type Sitelink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Snapshot is the normalized results-page data for one pair.
type Snapshot struct {
	Keyword         string            `json:"keyword"`
	Country         string            `json:"country"`
	OrganicResults  []OrganicResult   `json:"organicResults"`
	Ads             []Ad              `json:"ads"`
	FeaturedSnippet *FeaturedSnippet  `json:"featuredSnippet,omitempty"`
	PeopleAlsoAsk   []RelatedQuestion `json:"peopleAlsoAsk"`
	RelatedSearches []string          `json:"relatedSearches"`
	LocalResults    []LocalResult     `json:"localResults"`
	KnowledgeGraph  *KnowledgeGraph   `json:"knowledgeGraph,omitempty"`
	Sitelinks       []Sitelink        `json:"sitelinks"`
	Cached          bool              `json:"cached"`
	UsedFallback    bool              `json:"usedFallback"`
	Timestamp       time.Time         `json:"timestamp"`
}

// Key returns the snapshot key for the pair this snapshot describes.
func (s Snapshot) Key() string {
	return WorkPair{Keyword: s.Keyword, Country: s.Country}.Key()
}

// Clone returns a deep copy so cached snapshots stay immutable across reads.
func (s Snapshot) Clone() Snapshot {
	cp := s
	cp.OrganicResults = append([]OrganicResult(nil), s.OrganicResults...)
	cp.Ads = append([]Ad(nil), s.Ads...)
	cp.PeopleAlsoAsk = append([]RelatedQuestion(nil), s.PeopleAlsoAsk...)
	cp.RelatedSearches = append([]string(nil), s.RelatedSearches...)
	cp.LocalResults = append([]LocalResult(nil), s.LocalResults...)
	cp.Sitelinks = append([]Sitelink(nil), s.Sitelinks...)
	if s.FeaturedSnippet != nil {
		fs := *s.FeaturedSnippet
		cp.FeaturedSnippet = &fs
	}
	if s.KnowledgeGraph != nil {
		kg := *s.KnowledgeGraph
		kg.Attributes = make(map[string]string, len(s.KnowledgeGraph.Attributes))
		for k, v := range s.KnowledgeGraph.Attributes {
			kg.Attributes[k] = v
		}
		cp.KnowledgeGraph = &kg
	}
	return cp
}

// ErrorRecord is the per-pair failure shape embedded in a batch response.
type ErrorRecord struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SnapshotEvent is published after each live retrieval.
type SnapshotEvent struct {
	Key       string    `json:"key"`
	Keyword   string    `json:"keyword"`
	Country   string    `json:"country"`
	Provider  string    `json:"provider"`
	Timestamp time.Time `json:"timestamp"`
}
