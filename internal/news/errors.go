package news

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDate marks a date that is not YYYYMMDD.
	ErrInvalidDate = errors.New("invalid crawl date")
	// ErrEmptyResult marks an index page without an abstract link and at least one article link.
	ErrEmptyResult = errors.New("empty result")
	// ErrNotFound is returned by stores when no record exists for a date.
	ErrNotFound = errors.New("record not found")
)

// FetchError wraps a failed GET against the origin.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError reports an index page that yielded no usable links.
type ExtractionError struct {
	URL    string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s", e.URL, e.Reason)
}

func (e *ExtractionError) Unwrap() error { return ErrEmptyResult }
