package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/nao1215/sitemapgen/internal/config"
	"github.com/nao1215/sitemapgen/internal/database"
	applog "github.com/nao1215/sitemapgen/internal/log"
	"github.com/nao1215/sitemapgen/internal/model"
	"github.com/nao1215/sitemapgen/internal/ping"
	"github.com/nao1215/sitemapgen/internal/sitemap"
)

// Generator owns the sitemap state of one output directory.
type Generator struct {
	cfg      config.Config
	base     *url.URL
	store    *sitemap.Store
	writer   *sitemap.Writer
	notifier *ping.Notifier
	journal  *database.Journal

	// ownsJournal is true when New opened the journal and Close must close it.
	ownsJournal bool

	loadWarnings []error
	logger       *slog.Logger
	now          func() time.Time
	closed       bool
}

// Result is the outcome of one Flush.
type Result struct {
	// RunID identifies the run in the journal; empty when not journaled.
	RunID string `json:"runId,omitempty"`

	// Flush lists the files written and the buckets that failed.
	Flush *sitemap.FlushResult `json:"flush"`

	// IndexURL is the public URL of the index, empty when disabled.
	IndexURL string `json:"indexUrl,omitempty"`

	// Pings holds the automatic pings sent after the flush.
	Pings []ping.Result `json:"pings,omitempty"`

	// Categories summarises the store after the flush.
	Categories []CategoryStat `json:"categories"`

	// TotalEntries is the number of entries in the store after the flush.
	TotalEntries int `json:"totalEntries"`
}

// CategoryStat counts the files and entries of one category.
type CategoryStat struct {
	Category string `json:"category"`
	Files    int    `json:"files"`
	Entries  int    `json:"entries"`
}

type options struct {
	logger     *slog.Logger
	now        func() time.Time
	httpClient *http.Client
	journal    *database.Journal
	observer   func(model.Entry)
}

// Option configures a Generator.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock sets the clock used for new filenames and flush timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithHTTPClient sets the HTTP client used for pings.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithJournal uses an already open journal. The Generator does not close it.
func WithJournal(j *database.Journal) Option {
	return func(o *options) {
		o.journal = j
	}
}

// WithAddObserver registers a callback invoked after every Add that stored
// an entry.
func WithAddObserver(fn func(model.Entry)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// New validates cfg, loads the sitemap files in cfg.OutputDir and returns a
// Generator ready for Add, Remove and Flush. Unreadable or malformed files
// do not fail New; they are reported by LoadWarnings.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Generator, error) {
	o := options{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := model.ParseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	loader := sitemap.NewLoader(cfg.OutputDir, cfg.BaseFilename, sitemap.WithLoaderLogger(o.logger))
	loaded, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sitemaps from %s: %w", cfg.OutputDir, err)
	}

	store, err := sitemap.NewStore(cfg.BaseFilename, cfg.MaxEntriesPerFile,
		sitemap.WithLoadResult(loaded),
		sitemap.WithClock(o.now),
		sitemap.WithAddObserver(o.observer),
	)
	if err != nil {
		return nil, err
	}

	g := &Generator{
		cfg:          cfg,
		base:         base,
		store:        store,
		loadWarnings: loaded.Warnings,
		logger:       o.logger,
		now:          o.now,
	}

	writerOpts := []sitemap.WriterOption{
		sitemap.WithWorkers(cfg.MaxWorkers),
		sitemap.WithWriterLogger(o.logger),
		sitemap.WithWriterClock(o.now),
	}
	if cfg.IndexFilename != "" {
		writerOpts = append(writerOpts, sitemap.WithIndex(cfg.IndexFilename, g.locate))
	}
	g.writer = sitemap.NewWriter(cfg.OutputDir, writerOpts...)

	g.notifier = ping.NewNotifier(
		ping.WithHTTPClient(o.httpClient),
		ping.WithEndpoints(cfg.PingEndpoints),
		ping.WithTimeout(cfg.PingTimeout),
		ping.WithLogger(o.logger),
	)

	switch {
	case o.journal != nil:
		g.journal = o.journal
	case cfg.SaveToJournal:
		j, err := database.Open(cfg.JournalDir, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		g.journal = j
		g.ownsJournal = true
	}

	o.logger.Debug("sitemaps loaded",
		"dir", cfg.OutputDir,
		"files", len(loaded.Buckets),
		"entries", store.Len(),
		"warnings", len(loaded.Warnings),
	)
	return g, nil
}

// locate returns the public URL of a file in the output directory.
func (g *Generator) locate(filename string) string {
	return model.JoinURL(g.base, g.cfg.Subdirectory, filename)
}

// Config returns a copy of the configuration.
func (g *Generator) Config() config.Config {
	return g.cfg
}

// Store returns the underlying store.
func (g *Generator) Store() *sitemap.Store {
	return g.store
}

// LoadWarnings returns the problems found while loading existing files.
func (g *Generator) LoadWarnings() []error {
	return g.loadWarnings
}

// IndexURL returns the public URL of the sitemap index, or "" when the
// index is disabled.
func (g *Generator) IndexURL() string {
	if g.cfg.IndexFilename == "" {
		return ""
	}
	return g.locate(g.cfg.IndexFilename + sitemap.FileExtension)
}

// ResolveURL returns the absolute form of rawURL, resolved against BaseURL.
func (g *Generator) ResolveURL(rawURL string) (string, error) {
	return model.ResolveURL(g.base, rawURL)
}

// Add resolves rawURL against BaseURL and stores it. It returns false when
// the URL is already stored.
func (g *Generator) Add(rawURL, category string, freq model.ChangeFrequency, lastModified time.Time) (bool, error) {
	if g.closed {
		return false, ErrClosed
	}
	u, err := g.ResolveURL(rawURL)
	if err != nil {
		return false, err
	}
	return g.store.Add(model.NewEntry(u, category, freq, lastModified))
}

// Remove resolves rawURL against BaseURL and removes it. It returns false
// when the URL was not stored.
func (g *Generator) Remove(rawURL string) (bool, error) {
	if g.closed {
		return false, ErrClosed
	}
	u, err := g.ResolveURL(rawURL)
	if err != nil {
		return false, err
	}
	return g.store.Remove(u), nil
}

// Retain removes every stored URL not in keep. URLs in keep are resolved
// against BaseURL first. It returns the number of entries removed.
func (g *Generator) Retain(keep []string) (int, error) {
	if g.closed {
		return 0, ErrClosed
	}
	return g.retain(g.store.Buckets(), keep)
}

// RetainCategory is Retain limited to the entries of one category.
func (g *Generator) RetainCategory(category string, keep []string) (int, error) {
	if g.closed {
		return 0, ErrClosed
	}
	return g.retain(g.store.BucketsFor(category), keep)
}

func (g *Generator) retain(buckets []*sitemap.Bucket, keep []string) (int, error) {
	wanted := make(map[string]struct{}, len(keep))
	for _, raw := range keep {
		u, err := g.ResolveURL(raw)
		if err != nil {
			return 0, err
		}
		wanted[u] = struct{}{}
	}

	var stale []string
	for _, b := range buckets {
		for _, e := range b.Entries() {
			if _, ok := wanted[e.URL]; !ok {
				stale = append(stale, e.URL)
			}
		}
	}

	removed := 0
	for _, u := range stale {
		if g.store.Remove(u) {
			removed++
		}
	}
	return removed, nil
}

// Flush writes every changed file and the index, journals the run and,
// when AutoPing is configured and a file changed, pings the search engines.
//
// Per-bucket write failures are returned in Result.Flush and do not make
// the error non-nil. Journal failures are logged only.
func (g *Generator) Flush(ctx context.Context) (*Result, error) {
	if g.closed {
		return nil, ErrClosed
	}

	fr, err := g.writer.Flush(ctx, g.store)
	res := &Result{
		Flush:    fr,
		IndexURL: g.IndexURL(),
	}
	res.Categories, res.TotalEntries = g.stats()

	if fr != nil && (fr.Changed() || fr.Err() != nil) {
		res.RunID = g.record(ctx, fr, err)
	}
	if err != nil {
		return res, err
	}

	if len(g.cfg.AutoPing) > 0 && fr.Changed() && res.IndexURL != "" {
		pings, err := g.notifier.NotifySearchEngines(ctx, res.IndexURL, g.cfg.AutoPing)
		res.Pings = pings
		g.recordPings(ctx, res.RunID, pings)
		if err != nil {
			return res, fmt.Errorf("failed to ping search engines: %w", err)
		}
	}

	return res, nil
}

// Ping announces the index URL to engines, or to AutoPing when engines is
// empty, and journals the outcome.
func (g *Generator) Ping(ctx context.Context, engines []model.SearchEngine) ([]ping.Result, error) {
	if g.closed {
		return nil, ErrClosed
	}
	indexURL := g.IndexURL()
	if indexURL == "" {
		return nil, ErrNoIndex
	}
	if len(engines) == 0 {
		engines = g.cfg.AutoPing
	}

	results, err := g.notifier.NotifySearchEngines(ctx, indexURL, engines)
	g.recordPings(ctx, "", results)
	return results, err
}

// Close releases the journal when the Generator opened it.
func (g *Generator) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	if g.ownsJournal && g.journal != nil {
		return g.journal.Close()
	}
	return nil
}

func (g *Generator) stats() ([]CategoryStat, int) {
	categories := g.store.Categories()
	stats := make([]CategoryStat, 0, len(categories))
	for _, c := range categories {
		stat := CategoryStat{Category: c}
		for _, b := range g.store.BucketsFor(c) {
			stat.Files++
			stat.Entries += b.Len()
		}
		stats = append(stats, stat)
	}
	return stats, g.store.Len()
}

func (g *Generator) record(ctx context.Context, fr *sitemap.FlushResult, flushErr error) string {
	if g.journal == nil {
		return ""
	}

	run := &database.FlushRun{
		Started:   fr.Started,
		Finished:  fr.Finished,
		OutputDir: g.cfg.OutputDir,
		Failed:    len(fr.Failed),
	}
	if fr.Index != nil {
		run.IndexFile = fr.Index.Filename
	}
	if err := errors.Join(flushErr, fr.Err()); err != nil {
		run.Error = err.Error()
	}
	for _, f := range fr.Written {
		run.Files = append(run.Files, database.FlushedFile{
			Filename: f.Filename,
			Category: f.Category,
			Sequence: f.Sequence,
			Entries:  f.Entries,
			Size:     f.Size,
			Checksum: f.Checksum,
		})
	}
	if fr.Index != nil {
		run.Files = append(run.Files, database.FlushedFile{
			Filename: fr.Index.Filename,
			Entries:  fr.Index.Entries,
			Size:     fr.Index.Size,
			Checksum: fr.Index.Checksum,
		})
	}

	// A cancelled flush is still journaled.
	id, err := g.journal.RecordFlush(context.WithoutCancel(ctx), run)
	if err != nil {
		g.logger.Warn("failed to journal flush", "error", err)
		return ""
	}
	return id
}

func (g *Generator) recordPings(ctx context.Context, runID string, results []ping.Result) {
	if g.journal == nil || len(results) == 0 {
		return
	}

	records := make([]database.PingRecord, 0, len(results))
	for _, r := range results {
		rec := database.PingRecord{
			RunID:      runID,
			Engine:     r.Engine.String(),
			URL:        applog.RedactURL(r.URL),
			StatusCode: r.StatusCode,
			Timestamp:  g.now(),
		}
		if r.Err != nil {
			rec.Error = r.Err.Error()
		}
		records = append(records, rec)
	}
	if err := g.journal.RecordPings(context.WithoutCancel(ctx), records); err != nil {
		g.logger.Warn("failed to journal pings", "error", err)
	}
}
