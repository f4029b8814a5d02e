package domain

import (
	"errors"
	"fmt"
)

// Failure kinds. A FetchError always carries exactly one of these.
var (
	ErrNetwork        = errors.New("network error")
	ErrResponseFormat = errors.New("malformed response")
	ErrAuth           = errors.New("authorization failed")
	ErrScrapeTimeout  = errors.New("scrape timed out")
	ErrIO             = errors.New("io error")
)

// FetchError reports a failed indicator fetch. errors.Is matches both the
// kind sentinel and the underlying cause.
type FetchError struct {
	Source string
	Kind   error
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %v", e.Source, e.Kind)
	}
	return fmt.Sprintf("fetch %s: %v: %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewFetchError builds a FetchError for source with the given kind and cause.
func NewFetchError(source string, kind, err error) *FetchError {
	return &FetchError{Source: source, Kind: kind, Err: err}
}
