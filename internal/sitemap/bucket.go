package sitemap

import (
	"slices"
	"time"

	"github.com/nao1215/sitemapgen/internal/model"
)

// Bucket is one category-scoped partition of entries, written to one file.
type Bucket struct {
	// filename is fixed at creation and never regenerated.
	filename string

	// category is shared by every entry of the bucket.
	category string

	// sequence numbers buckets of the same category, starting at 1.
	sequence int

	// entries keeps insertion order, which is also the order in the file.
	entries []model.Entry

	// dirty means the in-memory state differs from the file on disk.
	dirty bool

	// sealed is set once the bucket reaches capacity and is never cleared.
	sealed bool

	// onDisk means the file exists: it was loaded or written at least once.
	onDisk bool
}

func newBucket(filename, category string, sequence int, dirty bool) *Bucket {
	return &Bucket{
		filename: filename,
		category: category,
		sequence: sequence,
		dirty:    dirty,
		onDisk:   !dirty,
	}
}

// Filename returns the file name of the bucket, without directory.
func (b *Bucket) Filename() string { return b.filename }

// Category returns the category of the bucket.
func (b *Bucket) Category() string { return b.category }

// Sequence returns the sequence number of the bucket within its category.
func (b *Bucket) Sequence() int { return b.sequence }

// Len returns the number of entries.
func (b *Bucket) Len() int { return len(b.entries) }

// Dirty reports whether the bucket must be rewritten on the next flush.
func (b *Bucket) Dirty() bool { return b.dirty }

// OnDisk reports whether the bucket's file has been loaded or written.
// Only such buckets are listed in the index.
func (b *Bucket) OnDisk() bool { return b.onDisk }

// Sealed reports whether the bucket has reached capacity at some point.
// A sealed bucket receives no new entries, even after removals.
func (b *Bucket) Sealed() bool { return b.sealed }

// Entries returns a copy of the entries in file order.
func (b *Bucket) Entries() []model.Entry {
	return slices.Clone(b.entries)
}

// contains reports whether an entry with url is present.
func (b *Bucket) contains(url string) bool {
	return b.indexOf(url) >= 0
}

func (b *Bucket) indexOf(url string) int {
	return slices.IndexFunc(b.entries, func(e model.Entry) bool { return e.URL == url })
}

func (b *Bucket) append(e model.Entry, maxEntries int) {
	b.entries = append(b.entries, e)
	b.dirty = true
	b.sealIfFull(maxEntries)
}

func (b *Bucket) sealIfFull(maxEntries int) {
	if len(b.entries) >= maxEntries {
		b.sealed = true
	}
}

// remove deletes the first entry with url. It reports whether one was found.
func (b *Bucket) remove(url string) bool {
	i := b.indexOf(url)
	if i < 0 {
		return false
	}
	b.entries = slices.Delete(b.entries, i, i+1)
	b.dirty = true
	return true
}

func (b *Bucket) markClean() {
	b.dirty = false
	b.onDisk = true
}

// LastModified returns the freshness of the bucket as listed in the index:
// the newest LastModified among entries not read from disk, falling back to
// the newest among all entries. The zero time means no entry carries a time.
func (b *Bucket) LastModified() time.Time {
	var fresh, all time.Time
	for _, e := range b.entries {
		if e.LastModified.After(all) {
			all = e.LastModified
		}
		if !e.Persisted && e.LastModified.After(fresh) {
			fresh = e.LastModified
		}
	}
	if !fresh.IsZero() {
		return fresh
	}
	return all
}
