package sitemap

import (
	"slices"
	"strings"
	"time"

	"github.com/nao1215/sitemapgen/internal/model"
	"golang.org/x/text/cases"
)

// Store owns every Bucket and enforces the partitioning rules:
//   - a URL is stored at most once across all buckets
//   - a bucket only receives entries while it holds fewer than maxEntries;
//     once full it is sealed and stays sealed after removals
//   - all entries of a bucket share its category
//
// Store is not safe for concurrent use.
type Store struct {
	// baseFilename prefixes the filenames of new buckets.
	baseFilename string

	// maxEntries is the capacity of one bucket.
	maxEntries int

	// now returns the creation time embedded in new filenames.
	now func() time.Time

	// observer is called after each successful Add.
	observer func(model.Entry)

	// buckets in registration order.
	buckets []*Bucket

	// byCategory indexes buckets by folded category, in registration order.
	byCategory map[string][]*Bucket

	// urlRefs counts stored entries per URL. Files written by earlier runs may
	// list the same URL twice, so a count rather than a set is kept.
	urlRefs map[string]int

	// maxSequence is the per-category sequence counter.
	maxSequence map[string]int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the clock used for the creation timestamp of new filenames.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAddObserver registers a callback invoked synchronously after every Add
// that stored an entry. It is never called for duplicates.
func WithAddObserver(fn func(model.Entry)) StoreOption {
	return func(s *Store) {
		s.observer = fn
	}
}

// WithLoadResult registers the buckets found by a Loader and seeds the
// per-category sequence counters from every file seen, including skipped ones.
func WithLoadResult(res *LoadResult) StoreOption {
	return func(s *Store) {
		if res == nil {
			return
		}
		for _, b := range res.Buckets {
			s.register(b)
		}
		for key, seq := range res.Sequences {
			s.seedSequence(key, seq)
		}
	}
}

// NewStore creates a Store whose new buckets are named after baseFilename
// and hold at most maxEntries entries.
func NewStore(baseFilename string, maxEntries int, opts ...StoreOption) (*Store, error) {
	if err := ValidateBaseFilename(baseFilename); err != nil {
		return nil, err
	}
	if maxEntries <= 0 {
		return nil, ErrInvalidMaxEntries
	}

	s := &Store{
		baseFilename: baseFilename,
		maxEntries:   maxEntries,
		now:          time.Now,
		byCategory:   make(map[string][]*Bucket),
		urlRefs:      make(map[string]int),
		maxSequence:  make(map[string]int),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// categoryKey folds a category for case-insensitive matching.
func categoryKey(category string) string {
	return cases.Fold().String(strings.TrimSpace(category))
}

func (s *Store) register(b *Bucket) {
	key := categoryKey(b.category)
	s.buckets = append(s.buckets, b)
	s.byCategory[key] = append(s.byCategory[key], b)
	for _, e := range b.entries {
		s.urlRefs[e.URL]++
	}
	b.sealIfFull(s.maxEntries)
	s.seedSequence(key, b.sequence)
}

func (s *Store) seedSequence(key string, seq int) {
	if seq > s.maxSequence[key] {
		s.maxSequence[key] = seq
	}
}

// Add stores e in the first unsealed bucket of its category, in registration
// order, creating a new bucket when every existing one is sealed. It returns false
// without error when the URL is already stored anywhere.
func (s *Store) Add(e model.Entry) (bool, error) {
	if e.URL == "" {
		return false, ErrEmptyURL
	}
	if err := ValidateCategory(e.Category); err != nil {
		return false, err
	}
	if e.ChangeFrequency != model.ChangeFrequencyUnknown && !e.ChangeFrequency.IsValid() {
		return false, model.ErrInvalidChangeFrequency
	}

	if s.urlRefs[e.URL] > 0 {
		return false, nil
	}

	key := categoryKey(e.Category)
	idx := slices.IndexFunc(s.byCategory[key], func(b *Bucket) bool {
		return !b.sealed && b.Len() < s.maxEntries
	})

	var target *Bucket
	if idx >= 0 {
		target = s.byCategory[key][idx]
	} else {
		category := strings.TrimSpace(e.Category)
		if existing := s.byCategory[key]; len(existing) > 0 {
			category = existing[0].category
		}
		target = s.createBucket(key, category)
	}

	e.Category = target.category
	e.Persisted = false
	target.append(e, s.maxEntries)
	s.urlRefs[e.URL]++

	if s.observer != nil {
		s.observer(e)
	}
	return true, nil
}

// createBucket registers an empty bucket with the next sequence number.
func (s *Store) createBucket(key, category string) *Bucket {
	seq := s.maxSequence[key] + 1
	name := FileName{
		Base:     s.baseFilename,
		Category: category,
		Sequence: seq,
		Created:  s.now(),
	}
	b := newBucket(name.String(), category, seq, true)
	s.register(b)
	return b
}

// Remove deletes the entry with url from the first bucket, in registration
// order, that holds it. It reports whether an entry was removed.
// A sealed bucket stays sealed after a removal.
func (s *Store) Remove(url string) bool {
	for _, b := range s.buckets {
		if b.remove(url) {
			s.urlRefs[url]--
			if s.urlRefs[url] <= 0 {
				delete(s.urlRefs, url)
			}
			return true
		}
	}
	return false
}

// Contains reports whether url is stored in any bucket.
func (s *Store) Contains(url string) bool {
	return s.urlRefs[url] > 0
}

// Lookup returns the stored entry for url. When loaded files list the same
// URL more than once, the copy registered last is returned.
func (s *Store) Lookup(url string) (model.Entry, bool) {
	for _, b := range slices.Backward(s.buckets) {
		if i := b.indexOf(url); i >= 0 {
			return b.entries[i], true
		}
	}
	return model.Entry{}, false
}

// Buckets returns all buckets in registration order.
func (s *Store) Buckets() []*Bucket {
	return slices.Clone(s.buckets)
}

// Dirty returns the buckets that must be rewritten, in registration order.
func (s *Store) Dirty() []*Bucket {
	var dirty []*Bucket
	for _, b := range s.buckets {
		if b.dirty {
			dirty = append(dirty, b)
		}
	}
	return dirty
}

// BucketsFor returns the buckets of category in registration order.
func (s *Store) BucketsFor(category string) []*Bucket {
	return slices.Clone(s.byCategory[categoryKey(category)])
}

// Categories returns the category of the first bucket of each category, sorted.
func (s *Store) Categories() []string {
	categories := make([]string, 0, len(s.byCategory))
	for _, buckets := range s.byCategory {
		categories = append(categories, buckets[0].category)
	}
	slices.Sort(categories)
	return categories
}

// Len returns the number of entries across all buckets.
func (s *Store) Len() int {
	n := 0
	for _, b := range s.buckets {
		n += b.Len()
	}
	return n
}

// MaxEntries returns the capacity of one bucket.
func (s *Store) MaxEntries() int {
	return s.maxEntries
}
