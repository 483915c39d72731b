package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Default crawl limits.
const (
	DefaultMaxDepth    = 5
	DefaultMaxPages    = 1000
	DefaultDelay       = 200 * time.Millisecond
	DefaultMaxBodySize = 10 * 1024 * 1024
	DefaultUserAgent   = "sitemapgen-crawler/1.0"
)

// Page is a crawled page that belongs in a sitemap.
type Page struct {
	// URL is the final URL of the page, after same-host redirects.
	URL string

	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Title is the page title.
	Title string

	// LastModified comes from the Last-Modified header; zero when absent.
	LastModified time.Time

	// Depth is the number of links followed from the start URL.
	Depth int
}

// Spider crawls the pages of one host breadth-first.
type Spider struct {
	// client performs the requests.
	client *http.Client

	// maxDepth limits how deep to crawl from the starting URL.
	// 0 means only the starting page, 1 means one level of links, etc.
	maxDepth int

	// maxPages limits the number of pages fetched.
	maxPages int

	// delay is the time to wait between requests.
	delay time.Duration

	// userAgent is the User-Agent header to use.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// ignorePatterns are doublestar path patterns that are never crawled.
	ignorePatterns []string

	// followPatterns restrict crawling to matching paths when non-empty.
	// The start URL is always fetched.
	followPatterns []string

	logger *slog.Logger

	// visited tracks URLs already visited to avoid duplicates.
	visited map[string]bool

	// mutex protects visited and pageCount.
	mutex sync.Mutex

	// pageCount tracks pages fetched.
	pageCount int
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the starting page, 1 = starting page plus linked pages, etc.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithMaxPages sets the maximum number of pages to fetch.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the delay between requests.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithSpiderUserAgent sets a custom User-Agent header.
func WithSpiderUserAgent(ua string) SpiderOption {
	return func(s *Spider) {
		s.userAgent = ua
	}
}

// WithSpiderMaxBodySize sets the maximum response body size.
func WithSpiderMaxBodySize(size int64) SpiderOption {
	return func(s *Spider) {
		s.maxBodySize = size
	}
}

// WithIgnorePatterns sets path patterns to skip, e.g. "/admin/**" or "**/*.pdf".
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns restricts crawling to paths matching one of patterns.
// An empty slice allows every path that is not ignored.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// WithSpiderLogger sets the logger.
func WithSpiderLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a new Spider with the given HTTP client.
// A nil client uses http.DefaultClient.
func NewSpider(client *http.Client, opts ...SpiderOption) *Spider {
	s := &Spider{
		client:      client,
		maxDepth:    DefaultMaxDepth,
		maxPages:    DefaultMaxPages,
		delay:       DefaultDelay,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		visited:     make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = http.DefaultClient
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Crawl fetches startURL and the same-host pages reachable from it and
// returns the indexable ones in discovery order. On cancellation the pages
// found so far are returned together with ctx.Err().
func (s *Spider) Crawl(ctx context.Context, startURL string) ([]Page, error) {
	start, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStartURL, err)
	}
	if (start.Scheme != "http" && start.Scheme != "https") || start.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStartURL, startURL)
	}
	for _, pattern := range append(append([]string{}, s.ignorePatterns...), s.followPatterns...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
	}

	pages := make([]Page, 0)
	queue := []queueItem{{url: start.String(), depth: 0}}

	for len(queue) > 0 && s.fetched() < s.maxPages {
		select {
		case <-ctx.Done():
			return pages, ctx.Err()
		default:
		}

		item := queue[0]
		queue = queue[1:]

		if s.isVisited(item.url) {
			continue
		}
		s.markVisited(item.url)

		page, result, err := s.fetchPage(ctx, item.url, start.Host)
		if err != nil {
			if ctx.Err() != nil {
				return pages, ctx.Err()
			}
			s.logger.Debug("fetch failed", "url", item.url, "error", err)
			continue
		}
		s.countPage()
		page.Depth = item.depth
		if page.URL != item.url {
			s.markVisited(page.URL)
		}

		if result == nil {
			continue
		}

		if indexable(page, result) {
			pages = append(pages, page)
		} else {
			s.logger.Debug("page not indexable", "url", page.URL,
				"status", page.StatusCode, "noindex", result.NoIndex, "canonical", result.Canonical)
		}

		next := result.InternalLinks
		if result.Canonical != "" && result.Canonical != page.URL {
			next = append([]string{result.Canonical}, next...)
		}
		if item.depth < s.maxDepth && !result.NoFollow {
			for _, link := range next {
				if !s.isVisited(link) && isSameHost(start.Host, link) && s.shouldCrawl(link) {
					queue = append(queue, queueItem{url: link, depth: item.depth + 1})
				}
			}
		}

		if s.delay > 0 && len(queue) > 0 {
			select {
			case <-ctx.Done():
				return pages, ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}

	return pages, nil
}

// queueItem represents an item in the crawl queue.
type queueItem struct {
	url   string
	depth int
}

// indexable reports whether a fetched page belongs in a sitemap.
func indexable(page Page, result *ParseResult) bool {
	if page.StatusCode < 200 || page.StatusCode > 299 || result.NoIndex {
		return false
	}
	return result.Canonical == "" || normalizeURL(result.Canonical) == normalizeURL(page.URL)
}

// fetchPage fetches one page. The returned ParseResult is nil for responses
// that are not HTML or that redirected to another host.
func (s *Spider) fetchPage(ctx context.Context, pageURL, host string) (Page, *ParseResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Page{}, nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return Page{}, nil, err
	}
	defer resp.Body.Close()

	page := Page{
		URL:        pageURL,
		StatusCode: resp.StatusCode,
	}
	if resp.Request != nil && resp.Request.URL != nil {
		page.URL = resp.Request.URL.String()
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			page.LastModified = t
		}
	}

	if !isSameHost(host, page.URL) {
		return page, nil, nil
	}
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
		return page, nil, nil
	}

	parser, err := NewParser(page.URL)
	if err != nil {
		return page, nil, err
	}
	result, err := parser.Parse(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return page, nil, err
	}
	page.Title = result.Title
	return page, result, nil
}

// isVisited checks if a URL has been visited.
func (s *Spider) isVisited(pageURL string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.visited[normalizeURL(pageURL)]
}

// markVisited marks a URL as visited.
func (s *Spider) markVisited(pageURL string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.visited[normalizeURL(pageURL)] = true
}

func (s *Spider) countPage() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pageCount++
}

func (s *Spider) fetched() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.pageCount
}

// normalizeURL normalizes a URL for deduplication.
// The fragment is dropped, scheme and host are lowercased and an empty
// path becomes "/".
func normalizeURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// isSameHost checks if targetURL is on baseHost.
func isSameHost(baseHost, targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, baseHost)
}

// Reset clears the spider's state, allowing it to be reused.
func (s *Spider) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.visited = make(map[string]bool)
	s.pageCount = 0
}

// Stats returns current crawl statistics.
func (s *Spider) Stats() SpiderStats {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return SpiderStats{
		PagesFetched: s.pageCount,
		URLsSeen:     len(s.visited),
	}
}

// SpiderStats contains crawl statistics.
type SpiderStats struct {
	// PagesFetched is the number of pages fetched, indexable or not.
	PagesFetched int

	// URLsSeen is the number of unique URLs encountered.
	URLsSeen int
}

// shouldCrawl applies the ignore and follow patterns to the URL path.
// Ignore patterns win over follow patterns.
func (s *Spider) shouldCrawl(targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range s.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(s.followPatterns) == 0 {
		return true
	}
	for _, pattern := range s.followPatterns {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// matchPattern matches a URL path against a doublestar pattern.
// Patterns without a leading "/" match at any depth, so "*.pdf" matches
// "/docs/file.pdf".
func matchPattern(pattern, path string) bool {
	if !strings.HasPrefix(pattern, "/") && !strings.HasPrefix(pattern, "**") {
		pattern = "**/" + pattern
	}
	matched, err := doublestar.Match(strings.TrimPrefix(pattern, "/"), strings.TrimPrefix(path, "/"))
	return err == nil && matched
}
