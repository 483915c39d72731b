package ping

import "errors"

var (
	// ErrNoIndexURL is returned when no index URL is given.
	ErrNoIndexURL = errors.New("no sitemap index URL to announce")

	// ErrNoEngines is returned when no search engine is given.
	ErrNoEngines = errors.New("no search engines to ping")

	// ErrUnexpectedStatus is wrapped by Result.Err for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)
