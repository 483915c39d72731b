package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoBaseURL is returned when no base URL is configured.
	ErrNoBaseURL = errors.New("no base URL specified: set baseUrl in the config file or use --base-url")

	// ErrInvalidBaseURL is returned when the base URL is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidBaseFilename is returned when the base filename cannot prefix sitemap files.
	ErrInvalidBaseFilename = errors.New("invalid base filename: must be non-empty and must not contain '_', path separators or glob characters")

	// ErrInvalidIndexFilename is returned when the index filename would collide
	// with sitemap files or contains a path separator.
	ErrInvalidIndexFilename = errors.New("invalid index filename")

	// ErrInvalidMaxEntries is returned when the per-file capacity is not positive.
	ErrInvalidMaxEntries = errors.New("invalid max entries per file: must be positive")

	// ErrInvalidMaxWorkers is returned when the worker count is not positive.
	ErrInvalidMaxWorkers = errors.New("invalid max workers: must be positive")

	// ErrInvalidPingTimeout is returned when the ping timeout is not positive.
	ErrInvalidPingTimeout = errors.New("invalid ping timeout: must be positive")

	// ErrNoJournalDir is returned when the journal is enabled without a directory.
	ErrNoJournalDir = errors.New("journal enabled but no journal directory specified")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
