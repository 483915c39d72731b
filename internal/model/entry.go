package model

import "time"

// Entry is one URL of a sitemap together with its metadata.
// URL is the unique key of an entry across all sitemap files.
type Entry struct {
	// URL is the absolute location of the page.
	URL string `json:"url"`

	// Category selects the family of sitemap files the entry is stored in.
	Category string `json:"category"`

	// ChangeFrequency hints how often the page is expected to change.
	ChangeFrequency ChangeFrequency `json:"change_frequency,omitempty"`

	// LastModified is the last modification time of the page.
	// The zero value means unknown.
	LastModified time.Time `json:"last_modified,omitempty"`

	// Persisted reports that the entry was read back from a file on disk.
	// It is not a dirty flag: it only affects how the index computes the
	// freshness of a sitemap file.
	Persisted bool `json:"persisted"`
}

// NewEntry creates a non-persisted Entry.
func NewEntry(url, category string, freq ChangeFrequency, lastModified time.Time) Entry {
	return Entry{
		URL:             url,
		Category:        category,
		ChangeFrequency: freq,
		LastModified:    lastModified,
	}
}
