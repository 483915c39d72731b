package model

import "errors"

var (
	// ErrInvalidChangeFrequency is returned when a string is not one of the
	// sitemap protocol change frequencies.
	ErrInvalidChangeFrequency = errors.New("invalid change frequency")

	// ErrInvalidBaseURL is returned when the base URL is not an absolute
	// http or https URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http(s) URL")

	// ErrInvalidURL is returned when a page URL cannot be parsed.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrUnknownSearchEngine is returned when an engine name is not recognised.
	ErrUnknownSearchEngine = errors.New("unknown search engine")
)
