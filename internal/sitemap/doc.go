// Package sitemap partitions URL entries into size-bounded, category-scoped
// sitemap files and persists them incrementally.
//
// The package is built from four parts:
//   - Bucket: one file-to-be holding an ordered list of entries
//   - Store: owns every Bucket and routes Add/Remove calls
//   - Loader: rebuilds Buckets from files written by earlier runs
//   - Writer: renders dirty Buckets (and an optional index) to XML
//
// File names encode the category and sequence number of a Bucket:
//
//	<base>_<category>_<sequence>_<DD>-<MM>-<YYYY>_<HH>-<mm>.xml
//
// The name of a Bucket is fixed when the Bucket is created and never
// changes afterwards, even though the file is rewritten on later flushes.
//
// # Concurrency
//
// A Store is not safe for concurrent use. Add, Remove and Writer.Flush must
// be serialised by the caller. The only parallelism in this package is the
// bounded worker pool that renders the entries of one Bucket; rendered
// entries are assembled in their original order regardless of which worker
// finishes first.
package sitemap
