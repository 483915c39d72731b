package sitemap

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// LoadResult is the outcome of scanning a directory for sitemap files.
type LoadResult struct {
	// Buckets holds one clean bucket per loaded file, in filename order.
	Buckets []*Bucket

	// Sequences holds the highest sequence number seen per folded category,
	// including files that were skipped.
	Sequences map[string]int

	// Warnings collects recoverable problems: *FilenameError and *LoadError.
	Warnings []error
}

// Err joins all warnings into one error, or returns nil.
func (r *LoadResult) Err() error {
	return errors.Join(r.Warnings...)
}

// Loader rebuilds buckets from the sitemap files of a directory.
// Loader does not deduplicate URLs across files.
type Loader struct {
	dir          string
	baseFilename string
	logger       *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets the logger used to report skipped files.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader for files named <baseFilename>_*.xml in dir.
func NewLoader(dir, baseFilename string, opts ...LoaderOption) *Loader {
	l := &Loader{
		dir:          dir,
		baseFilename: baseFilename,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Pattern returns the glob pattern matched against file names.
func (l *Loader) Pattern() string {
	return l.baseFilename + BlockSeparator + "*" + FileExtension
}

// Load reads every matching file. A missing directory yields an empty result.
// Problems with individual files are collected as warnings; only a failure
// to list the directory or a cancelled context is returned as an error.
func (l *Loader) Load(ctx context.Context) (*LoadResult, error) {
	res := &LoadResult{Sequences: make(map[string]int)}

	if _, err := os.Stat(l.dir); errors.Is(err, fs.ErrNotExist) {
		return res, nil
	}

	names, err := doublestar.Glob(os.DirFS(l.dir), l.Pattern(), doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	slices.Sort(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		l.loadFile(res, name)
	}

	l.logger.Debug("sitemap files loaded",
		"dir", l.dir,
		"files", len(res.Buckets),
		"warnings", len(res.Warnings),
	)
	return res, nil
}

func (l *Loader) loadFile(res *LoadResult, name string) {
	path := filepath.Join(l.dir, name)

	fn, err := ParseFileName(l.baseFilename, name)
	if err != nil {
		l.logger.Warn("malformed sitemap filename", "path", path, "error", err)
		res.Warnings = append(res.Warnings, err)
	}

	key := categoryKey(fn.Category)
	if fn.Sequence > res.Sequences[key] {
		res.Sequences[key] = fn.Sequence
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the configured output directory
	if err != nil {
		res.Warnings = append(res.Warnings, &LoadError{Path: path, Category: fn.Category, Err: err})
		l.logger.Warn("skipping unreadable sitemap", "path", path, "error", err)
		return
	}

	entries, err := decodeURLSet(data, fn.Category)
	if err != nil {
		res.Warnings = append(res.Warnings, &LoadError{Path: path, Category: fn.Category, Err: err})
		l.logger.Warn("skipping unparsable sitemap", "path", path, "error", err)
		return
	}

	b := newBucket(name, fn.Category, fn.Sequence, false)
	b.entries = entries
	res.Buckets = append(res.Buckets, b)
}
