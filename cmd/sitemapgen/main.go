// Package main provides the entry point for the sitemapgen CLI.
//
// sitemapgen maintains category-partitioned, size-capped sitemap files and
// rewrites only the files whose content changed.
//
// Usage:
//
//	sitemapgen add /blog/hello --category blog --changefreq weekly
//	sitemapgen generate --list urls.tsv
//
// See --help for all available options.
package main

// main is the entry point for sitemapgen.
func main() {
	Execute()
}
