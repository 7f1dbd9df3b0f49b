package serp

import (
	"errors"
	"fmt"
)

// ValidationError rejects a malformed or over-quota batch request before any
// work is performed.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// ScrapeError is a live-scrape failure: navigation timeout, render failure,
// or extraction yielding nothing usable. It is retryable, meaning the next
// provider in the chain should be attempted.
type ScrapeError struct {
	Provider string
	Pair     WorkPair
	Err      error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("%s scrape %q/%s: %v", e.Provider, e.Pair.Keyword, e.Pair.Country, e.Err)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// FallbackError is a failure of the paid results API. It is terminal for the
// pair: there is nothing further to fall through to.
type FallbackError struct {
	Pair WorkPair
	Err  error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("fallback api %q/%s: %v", e.Pair.Keyword, e.Pair.Country, e.Err)
}

func (e *FallbackError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a provider failure should fall through to the
// next provider in the chain.
func Retryable(err error) bool {
	var se *ScrapeError
	return errors.As(err, &se)
}
