// Package ping notifies search engines that a sitemap index changed.
//
// A ping is an HTTP GET of the engine endpoint with the query-escaped index
// URL appended. Engines are pinged concurrently; the outcome of every engine
// is reported separately and one failing engine does not affect the others.
package ping
