package sitemap

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFilename is wrapped by FilenameError. Loading recovers from it.
	ErrMalformedFilename = errors.New("malformed sitemap filename")

	// ErrBucketWrite is wrapped by BucketWriteError.
	ErrBucketWrite = errors.New("failed to write sitemap file")

	// ErrInvalidCategory is returned when a category is empty or contains a
	// character reserved by the filename format.
	ErrInvalidCategory = errors.New("invalid category: must be non-empty and must not contain '_' or path separators")

	// ErrEmptyURL is returned by Add when the entry has no URL.
	ErrEmptyURL = errors.New("entry URL is empty")

	// ErrInvalidMaxEntries is returned when the per-file capacity is not positive.
	ErrInvalidMaxEntries = errors.New("invalid max entries per file: must be positive")

	// ErrInvalidBaseFilename is returned when the base filename is empty or
	// contains a reserved or glob character.
	ErrInvalidBaseFilename = errors.New("invalid base filename")
)

// FilenameError reports a file whose name does not follow the naming scheme.
// The file is still loaded; unparsable parts fall back to zero values.
type FilenameError struct {
	Name   string
	Reason string
}

func (e *FilenameError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrMalformedFilename, e.Name, e.Reason)
}

// Unwrap returns ErrMalformedFilename.
func (e *FilenameError) Unwrap() error {
	return ErrMalformedFilename
}

// LoadError reports a sitemap file that could not be read or parsed.
// The file is skipped; its sequence number is still reserved.
type LoadError struct {
	Path     string
	Category string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load sitemap %s (category %q): %v", e.Path, e.Category, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// BucketWriteError reports a Bucket whose file could not be written.
// The Bucket stays dirty so the next Flush retries it.
type BucketWriteError struct {
	Path     string
	Category string
	Err      error
}

func (e *BucketWriteError) Error() string {
	return fmt.Sprintf("%s %s (category %q): %v", ErrBucketWrite, e.Path, e.Category, e.Err)
}

// Unwrap returns both ErrBucketWrite and the underlying error.
func (e *BucketWriteError) Unwrap() []error {
	return []error{ErrBucketWrite, e.Err}
}
