// Package crawler discovers the pages of a web site for sitemap generation.
//
// A Spider starts at one URL, fetches HTML pages breadth-first and follows
// links that stay on the same host. Pages that ask not to be indexed, that
// declare a canonical URL elsewhere or that do not answer 2xx are visited
// but not returned.
//
// # Usage
//
//	spider := crawler.NewSpider(http.DefaultClient, crawler.WithMaxDepth(3))
//	pages, err := spider.Crawl(ctx, "https://example.com/")
//
// Path filters use doublestar patterns ("/admin/**", "**/*.pdf").
package crawler
