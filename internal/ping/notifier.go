package ping

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/nao1215/sitemapgen/internal/model"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies sitemapgen to search engines.
	DefaultUserAgent = "sitemapgen (+https://github.com/nao1215/sitemapgen)"

	// maxDrain bounds how much of a response body is read before closing.
	maxDrain = 64 * 1024
)

// Result is the outcome of pinging one engine.
type Result struct {
	Engine     model.SearchEngine `json:"engine"`
	URL        string             `json:"url"`
	StatusCode int                `json:"statusCode,omitempty"`
	Duration   time.Duration      `json:"duration"`
	Err        error              `json:"-"`
}

// OK reports whether the engine accepted the ping.
func (r Result) OK() bool {
	return r.Err == nil
}

// Failed returns the joined errors of every failed result, or nil.
func Failed(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Engine, r.Err))
		}
	}
	return errors.Join(errs...)
}

// Notifier sends sitemap pings.
type Notifier struct {
	client      *http.Client
	endpoints   map[string]string
	userAgent   string
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(n *Notifier) {
		if client != nil {
			n.client = client
		}
	}
}

// WithEndpoints registers custom engine endpoints. Entries for built-in
// engines override the built-in endpoint.
func WithEndpoints(endpoints map[string]string) Option {
	return func(n *Notifier) {
		for name, endpoint := range endpoints {
			n.endpoints[name] = endpoint
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(n *Notifier) {
		if timeout > 0 {
			n.timeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(n *Notifier) {
		n.userAgent = ua
	}
}

// WithConcurrency bounds the number of simultaneous requests.
func WithConcurrency(limit int) Option {
	return func(n *Notifier) {
		if limit > 0 {
			n.concurrency = limit
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewNotifier creates a Notifier.
func NewNotifier(opts ...Option) *Notifier {
	n := &Notifier{
		client:      &http.Client{},
		endpoints:   make(map[string]string),
		userAgent:   DefaultUserAgent,
		timeout:     DefaultTimeout,
		concurrency: 4,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// RequestURL returns the URL requested to ping engine about indexURL.
func (n *Notifier) RequestURL(engine model.SearchEngine, indexURL string) (string, error) {
	endpoint, ok := n.endpoints[engine.String()]
	if !ok || endpoint == "" {
		endpoint = engine.PingEndpoint()
	}
	if endpoint == "" {
		return "", fmt.Errorf("%w: %q has no endpoint", model.ErrUnknownSearchEngine, engine)
	}
	return endpoint + url.QueryEscape(indexURL), nil
}

// NotifySearchEngines pings every engine with indexURL and returns one
// result per engine in the order given. The error is non-nil only for
// invalid input or when ctx is done; per-engine failures are reported in
// the results.
func (n *Notifier) NotifySearchEngines(ctx context.Context, indexURL string, engines []model.SearchEngine) ([]Result, error) {
	if indexURL == "" {
		return nil, ErrNoIndexURL
	}
	if len(engines) == 0 {
		return nil, ErrNoEngines
	}

	requests := make([]string, len(engines))
	for i, engine := range engines {
		u, err := n.RequestURL(engine, indexURL)
		if err != nil {
			return nil, err
		}
		requests[i] = u
	}

	results := make([]Result, len(engines))
	var g errgroup.Group
	g.SetLimit(n.concurrency)
	for i, engine := range engines {
		g.Go(func() error {
			results[i] = n.ping(ctx, engine, requests[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (n *Notifier) ping(ctx context.Context, engine model.SearchEngine, target string) (res Result) {
	res = Result{Engine: engine, URL: target}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		res.Err = fmt.Errorf("failed to create request: %w", err)
		return res
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		res.Err = err
		n.logger.Warn("ping failed", "engine", engine.String(), "url", target, "error", err)
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	res.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Err = fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
		n.logger.Warn("ping rejected", "engine", engine.String(), "url", target, "status", resp.StatusCode)
		return res
	}

	n.logger.Debug("ping sent", "engine", engine.String(), "url", target, "status", resp.StatusCode)
	return res
}
