package generator

import "errors"

var (
	// ErrNoIndex is returned by Ping when the index is disabled.
	ErrNoIndex = errors.New("sitemap index is disabled: nothing to announce")

	// ErrClosed is returned when a closed Generator is used.
	ErrClosed = errors.New("generator is closed")
)
