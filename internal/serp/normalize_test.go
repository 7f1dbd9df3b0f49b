package serp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlexStringsAcceptsStringAndArray(t *testing.T) {
	t.Parallel()

	var req BatchRequest
	require.NoError(t, json.Unmarshal([]byte(`{"keyword":"seo tools","country":"US"}`), &req))
	require.Equal(t, FlexStrings{"seo tools"}, req.Keyword)
	require.Equal(t, FlexStrings{"US"}, req.Country)

	require.NoError(t, json.Unmarshal([]byte(`{"keyword":["a","b"],"country":["us","uk"]}`), &req))
	require.Equal(t, FlexStrings{"a", "b"}, req.Keyword)

	err := json.Unmarshal([]byte(`{"keyword":42}`), &req)
	require.Error(t, err)
}

func TestNormalizeSplitsDelimitedKeywords(t *testing.T) {
	t.Parallel()

	exp, err := Normalize(BatchRequest{
		Keyword: FlexStrings{"seo tools, keyword research\nbacklink checker"},
		Country: FlexStrings{"us"},
	})
	require.NoError(t, err)
	require.Equal(t, 3, exp.Keywords)
	require.Len(t, exp.Pairs, 3)
	require.Equal(t, "seo tools", exp.Pairs[0].Keyword)
	require.Equal(t, "keyword research", exp.Pairs[1].Keyword)
	require.Equal(t, "backlink checker", exp.Pairs[2].Keyword)
}

func TestNormalizeDropsEmptyEntries(t *testing.T) {
	t.Parallel()

	exp, err := Normalize(BatchRequest{
		Keyword: FlexStrings{" seo tools ,, ", "  "},
		Country: FlexStrings{" us ", ""},
	})
	require.NoError(t, err)
	require.Len(t, exp.Pairs, 1)
	require.Equal(t, "seo tools", exp.Pairs[0].Keyword)
	require.Equal(t, "us", exp.Pairs[0].Country)
}

func TestNormalizeRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	_, err := Normalize(BatchRequest{Country: FlexStrings{"us"}})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "at least one keyword is required", ve.Msg)

	_, err = Normalize(BatchRequest{Keyword: FlexStrings{"seo"}})
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "at least one country is required", ve.Msg)
}

func TestNormalizeEnforcesKeywordLimit(t *testing.T) {
	t.Parallel()

	_, err := Normalize(BatchRequest{
		Keyword: FlexStrings{"a", "b", "c", "d", "e", "f"},
		Country: FlexStrings{"us"},
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "Max 5 keywords per request, got 6", ve.Msg)

	// Limits apply after splitting delimited strings.
	_, err = Normalize(BatchRequest{
		Keyword: FlexStrings{"a,b,c,d,e,f"},
		Country: FlexStrings{"us"},
	})
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "Max 5 keywords per request, got 6", ve.Msg)
}

func TestNormalizeEnforcesCountryLimit(t *testing.T) {
	t.Parallel()

	_, err := Normalize(BatchRequest{
		Keyword: FlexStrings{"seo"},
		Country: FlexStrings{"us", "uk", "de"},
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "Max 2 countries per request, got 3", ve.Msg)
}

func TestNormalizeCrossProductAndDedup(t *testing.T) {
	t.Parallel()

	exp, err := Normalize(BatchRequest{
		Keyword: FlexStrings{"SEO Tools", "seo tools", "rank tracker"},
		Country: FlexStrings{"us", "uk"},
	})
	require.NoError(t, err)
	// "SEO Tools" and "seo tools" collapse to the same key per country.
	require.Len(t, exp.Pairs, 4)
	require.Equal(t, 3, exp.Keywords)
	require.Equal(t, 2, exp.Countries)

	keys := make(map[string]struct{}, len(exp.Pairs))
	for _, pair := range exp.Pairs {
		keys[pair.Key()] = struct{}{}
	}
	require.Len(t, keys, 4)
}
