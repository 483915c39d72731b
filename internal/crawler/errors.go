package crawler

import "errors"

var (
	// ErrInvalidStartURL is returned when the crawl start URL is not an
	// absolute http(s) URL.
	ErrInvalidStartURL = errors.New("invalid start URL")

	// ErrInvalidPattern is returned for a malformed ignore or follow pattern.
	ErrInvalidPattern = errors.New("invalid path pattern")
)
