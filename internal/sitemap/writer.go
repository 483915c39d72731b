package sitemap

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"golang.org/x/crypto/sha3"
)

// DefaultWorkers is the number of entries rendered concurrently per bucket.
const DefaultWorkers = 2

// filePerm is the mode of written sitemap files. They are public documents.
const filePerm = 0o644

// FileResult describes one file written by a flush.
type FileResult struct {
	// Filename is the file name without directory.
	Filename string `json:"filename"`

	// Path is the full path of the written file.
	Path string `json:"path"`

	// Category is empty for the index file.
	Category string `json:"category,omitempty"`

	// Sequence is 0 for the index file.
	Sequence int `json:"sequence,omitempty"`

	// Entries is the number of <url> or <sitemap> records written.
	Entries int `json:"entries"`

	// Size is the file size in bytes.
	Size int `json:"size"`

	// Checksum is the hex SHA3-256 digest of the file content.
	Checksum string `json:"checksum"`
}

// FlushResult is the outcome of one Flush call.
type FlushResult struct {
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`

	// Written lists the bucket files written, in registration order.
	Written []FileResult `json:"written"`

	// Failed lists the buckets that could not be written. They stay dirty.
	Failed []*BucketWriteError `json:"-"`

	// Index is the written index file, or nil when none was written.
	Index *FileResult `json:"index,omitempty"`

	// IndexErr is set when writing the index failed.
	IndexErr error `json:"-"`
}

// Err joins every per-file failure into one error, or returns nil.
func (r *FlushResult) Err() error {
	errs := make([]error, 0, len(r.Failed)+1)
	for _, f := range r.Failed {
		errs = append(errs, f)
	}
	if r.IndexErr != nil {
		errs = append(errs, r.IndexErr)
	}
	return errors.Join(errs...)
}

// Changed reports whether any file was written.
func (r *FlushResult) Changed() bool {
	return len(r.Written) > 0 || r.Index != nil
}

// Writer renders dirty buckets to files in one directory.
type Writer struct {
	// dir is the output directory.
	dir string

	// workers bounds the concurrent rendering of entries within a bucket.
	workers int

	// indexFilename is the index file name without extension; empty disables the index.
	indexFilename string

	// locate maps a bucket filename to its public URL for the index.
	locate func(filename string) string

	// indexDirty means the index on disk is missing or older than the buckets.
	indexDirty bool

	logger *slog.Logger
	now    func() time.Time
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithWorkers sets the number of entries rendered concurrently.
// Non-positive values keep the default.
func WithWorkers(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithIndex enables writing <name>.xml listing every bucket, whose <loc> is
// computed by locate.
func WithIndex(name string, locate func(filename string) string) WriterOption {
	return func(w *Writer) {
		w.indexFilename = name
		w.locate = locate
	}
}

// WithWriterLogger sets the logger.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

// WithWriterClock sets the clock used for result timestamps.
func WithWriterClock(now func() time.Time) WriterOption {
	return func(w *Writer) {
		if now != nil {
			w.now = now
		}
	}
}

// NewWriter creates a Writer for dir.
func NewWriter(dir string, opts ...WriterOption) *Writer {
	w := &Writer{
		dir:     dir,
		workers: DefaultWorkers,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.locate == nil {
		w.locate = func(filename string) string { return filename }
	}
	if path := w.IndexPath(); path != "" {
		if _, err := os.Stat(path); err != nil {
			w.indexDirty = true
		}
	}
	return w
}

// IndexPath returns the path of the index file, or "" when disabled.
func (w *Writer) IndexPath() string {
	if w.indexFilename == "" {
		return ""
	}
	return filepath.Join(w.dir, w.indexFilename+FileExtension)
}

// Flush writes every dirty bucket of store and clears its dirty flag once its
// own file is in place. A bucket that fails to write is reported in the
// result and the remaining buckets are still attempted. When an index is
// configured, it is rewritten after any bucket was dirty, or when it is
// missing or a previous write of it failed. The index lists only buckets
// whose file exists.
//
// The returned error is non-nil only when the output directory cannot be
// created or ctx is done; buckets completed before that stay clean.
func (w *Writer) Flush(ctx context.Context, store *Store) (*FlushResult, error) {
	res := &FlushResult{Started: w.now()}
	defer func() { res.Finished = w.now() }()

	dirty := store.Dirty()
	if len(dirty) == 0 && !w.indexPending(store) {
		w.logger.Debug("nothing to flush")
		return res, nil
	}
	if len(dirty) > 0 && w.indexFilename != "" {
		w.indexDirty = true
	}

	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return res, fmt.Errorf("failed to create output directory %s: %w", w.dir, err)
	}

	for _, b := range dirty {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		fr, err := w.writeBucket(ctx, b)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			bwErr := &BucketWriteError{Path: filepath.Join(w.dir, b.filename), Category: b.category, Err: err}
			res.Failed = append(res.Failed, bwErr)
			w.logger.Error("sitemap write failed",
				"path", bwErr.Path,
				"category", b.category,
				"error", err,
			)
			continue
		}

		b.markClean()
		res.Written = append(res.Written, fr)
		w.logger.Debug("sitemap written",
			"file", fr.Filename,
			"category", fr.Category,
			"entries", fr.Entries,
		)
	}

	if w.indexPending(store) {
		idx, err := w.writeIndex(store.Buckets())
		if err != nil {
			res.IndexErr = &BucketWriteError{Path: w.IndexPath(), Err: err}
			w.logger.Error("sitemap index write failed", "path", w.IndexPath(), "error", err)
		} else {
			w.indexDirty = false
			res.Index = &idx
		}
	}

	return res, nil
}

// indexPending reports whether the index must be written: it is enabled,
// stale, and at least one bucket file exists to list.
func (w *Writer) indexPending(store *Store) bool {
	if w.indexFilename == "" || !w.indexDirty {
		return false
	}
	return slices.ContainsFunc(store.Buckets(), (*Bucket).OnDisk)
}

func (w *Writer) writeBucket(ctx context.Context, b *Bucket) (FileResult, error) {
	slots, err := renderEntries(ctx, b.entries, w.workers)
	if err != nil {
		return FileResult{}, fmt.Errorf("failed to render entries: %w", err)
	}

	data := assembleURLSet(slots)
	path := filepath.Join(w.dir, b.filename)
	if err := writeFileAtomic(path, data); err != nil {
		return FileResult{}, err
	}

	return FileResult{
		Filename: b.filename,
		Path:     path,
		Category: b.category,
		Sequence: b.sequence,
		Entries:  len(slots),
		Size:     len(data),
		Checksum: checksum(data),
	}, nil
}

func (w *Writer) writeIndex(buckets []*Bucket) (FileResult, error) {
	items := make([]sitemapElement, 0, len(buckets))
	for _, b := range buckets {
		if !b.onDisk {
			continue
		}
		items = append(items, sitemapElement{
			Loc:     w.locate(b.filename),
			LastMod: formatLastMod(b.LastModified()),
		})
	}

	data, err := renderIndex(items)
	if err != nil {
		return FileResult{}, err
	}

	path := w.IndexPath()
	if err := writeFileAtomic(path, data); err != nil {
		return FileResult{}, err
	}

	return FileResult{
		Filename: filepath.Base(path),
		Path:     path,
		Entries:  len(items),
		Size:     len(data),
		Checksum: checksum(data),
	}, nil
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()        //nolint:errcheck // the write error is reported
		_ = os.Remove(tmpPath) //nolint:errcheck // best effort cleanup
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath) //nolint:errcheck // best effort cleanup
		return err
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		_ = os.Remove(tmpPath) //nolint:errcheck // best effort cleanup
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) //nolint:errcheck // best effort cleanup
		return err
	}
	return nil
}

func checksum(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
