package serp

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Batch limits. These cap both cost (browser sessions, API calls) and the
// blast radius of a single request.
const (
	MaxKeywords  = 5
	MaxCountries = 2
)

// FlexStrings accepts either a JSON string or a JSON array of strings.
type FlexStrings []string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*f = FlexStrings{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected string or array of strings: %w", err)
	}
	*f = FlexStrings(many)
	return nil
}

// BatchRequest is the inbound request body.
type BatchRequest struct {
	Keyword FlexStrings `json:"keyword"`
	Country FlexStrings `json:"country"`
}

// Expansion is the validated, bounded work list derived from a BatchRequest.
type Expansion struct {
	Pairs     []WorkPair
	Keywords  int
	Countries int
}

// Normalize expands a batch request into work pairs. Delimited keyword
// strings are split on commas and newlines, everything is trimmed, and
// empties are dropped. Pairs are the keyword x country cross product,
// deduplicated by snapshot key so one request never races two live
// retrievals for the same key.
func Normalize(req BatchRequest) (Expansion, error) {
	keywords := splitKeywords(req.Keyword)
	countries := trimAll(req.Country)

	if len(keywords) == 0 {
		return Expansion{}, &ValidationError{Msg: "at least one keyword is required"}
	}
	if len(countries) == 0 {
		return Expansion{}, &ValidationError{Msg: "at least one country is required"}
	}
	if len(keywords) > MaxKeywords {
		return Expansion{}, &ValidationError{Msg: fmt.Sprintf("Max %d keywords per request, got %d", MaxKeywords, len(keywords))}
	}
	if len(countries) > MaxCountries {
		return Expansion{}, &ValidationError{Msg: fmt.Sprintf("Max %d countries per request, got %d", MaxCountries, len(countries))}
	}

	seen := make(map[string]struct{}, len(keywords)*len(countries))
	pairs := make([]WorkPair, 0, len(keywords)*len(countries))
	for _, kw := range keywords {
		for _, cc := range countries {
			pair := WorkPair{Keyword: kw, Country: cc}
			key := pair.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			pairs = append(pairs, pair)
		}
	}

	return Expansion{
		Pairs:     pairs,
		Keywords:  len(keywords),
		Countries: len(countries),
	}, nil
}

func splitKeywords(raw FlexStrings) []string {
	var out []string
	for _, entry := range raw {
		entry = strings.ReplaceAll(entry, "\n", ",")
		for _, part := range strings.Split(entry, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
	}
	return out
}

func trimAll(raw FlexStrings) []string {
	var out []string
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		out = append(out, entry)
	}
	return out
}
