// Package model defines the core data structures used throughout sitemapgen.
//
// This package contains the following main types:
//   - Entry: One URL together with its sitemap metadata
//   - ChangeFrequency: The <changefreq> vocabulary of the sitemap protocol
//   - SearchEngine: Identifiers of the search engines that can be pinged
//
// The models live in their own package so that the partitioning engine
// (sitemap), the notifier (ping) and the journal (database) can share them
// without import cycles.
package model
