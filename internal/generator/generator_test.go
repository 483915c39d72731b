package generator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/sitemapgen/internal/config"
	"github.com/nao1215/sitemapgen/internal/database"
	"github.com/nao1215/sitemapgen/internal/model"
	"github.com/nao1215/sitemapgen/internal/sitemap"
)

var testNow = time.Date(2026, time.March, 14, 15, 9, 0, 0, time.Local)

func fixedClock() time.Time { return testNow }

// testConfig returns a valid configuration rooted in temporary directories.
func testConfig(t *testing.T) config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.BaseURL = "https://example.com"
	cfg.OutputDir = filepath.Join(t.TempDir(), "sitemaps")
	cfg.JournalDir = t.TempDir()
	cfg.MaxEntriesPerFile = 2
	return *cfg
}

func newTestGenerator(t *testing.T, cfg config.Config, opts ...Option) *Generator {
	t.Helper()

	opts = append([]Option{WithClock(fixedClock)}, opts...)
	g, err := New(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func mustAdd(t *testing.T, g *Generator, rawURL, category string) {
	t.Helper()

	added, err := g.Add(rawURL, category, model.ChangeFrequencyDaily, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("failed to add %s: %v", rawURL, err)
	}
	if !added {
		t.Fatalf("expected %s to be added", rawURL)
	}
}

// TestNew tests construction and validation.
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("invalid config is rejected", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t)
		cfg.BaseURL = ""
		if _, err := New(context.Background(), cfg); !errors.Is(err, config.ErrNoBaseURL) {
			t.Errorf("expected ErrNoBaseURL, got %v", err)
		}
	})

	t.Run("missing output directory starts empty", func(t *testing.T) {
		t.Parallel()

		g := newTestGenerator(t, testConfig(t))
		if g.Store().Len() != 0 {
			t.Errorf("expected empty store, got %d entries", g.Store().Len())
		}
		if len(g.LoadWarnings()) != 0 {
			t.Errorf("unexpected warnings: %v", g.LoadWarnings())
		}
	})

	t.Run("journal is opened in JournalDir", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t)
		newTestGenerator(t, cfg)
		if _, err := os.Stat(filepath.Join(cfg.JournalDir, database.FileName)); err != nil {
			t.Errorf("expected journal file: %v", err)
		}
	})

	t.Run("corrupt files become warnings", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t)
		if err := os.MkdirAll(cfg.OutputDir, 0o750); err != nil {
			t.Fatal(err)
		}
		bad := filepath.Join(cfg.OutputDir, "sitemap_blog_3_01-01-2026_10-00.xml")
		if err := os.WriteFile(bad, []byte("<urlset><url>"), 0o600); err != nil {
			t.Fatal(err)
		}

		g := newTestGenerator(t, cfg)
		if len(g.LoadWarnings()) != 1 {
			t.Fatalf("expected 1 warning, got %v", g.LoadWarnings())
		}

		mustAdd(t, g, "/a", "blog")
		if seq := g.Store().BucketsFor("blog")[0].Sequence(); seq != 4 {
			t.Errorf("expected sequence 4 after skipped file 3, got %d", seq)
		}
	})
}

// TestGeneratorAdd tests URL resolution on Add and Remove.
func TestGeneratorAdd(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, testConfig(t))

	mustAdd(t, g, "/blog/hello", "blog")
	if !g.Store().Contains("https://example.com/blog/hello") {
		t.Error("expected relative URL to be resolved against the base URL")
	}

	added, err := g.Add("https://example.com/blog/hello", "blog", model.ChangeFrequencyDaily, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added {
		t.Error("expected absolute duplicate to be ignored")
	}

	if _, err := g.Add("/x", "bad_category", model.ChangeFrequencyDaily, time.Time{}); !errors.Is(err, sitemap.ErrInvalidCategory) {
		t.Errorf("expected ErrInvalidCategory, got %v", err)
	}
	if _, err := g.Add("http://[::1", "blog", model.ChangeFrequencyDaily, time.Time{}); !errors.Is(err, model.ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}

	removed, err := g.Remove("/blog/hello")
	if err != nil || !removed {
		t.Errorf("expected removal, got %v %v", removed, err)
	}
	removed, err = g.Remove("/blog/hello")
	if err != nil || removed {
		t.Errorf("expected second removal to be a no-op, got %v %v", removed, err)
	}
}

// TestGeneratorFlush tests the full flush cycle across runs.
func TestGeneratorFlush(t *testing.T) {
	t.Parallel()

	t.Run("writes files, index and journal", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t)
		g := newTestGenerator(t, cfg)
		mustAdd(t, g, "/a", "blog")
		mustAdd(t, g, "/b", "blog")
		mustAdd(t, g, "/c", "blog")
		mustAdd(t, g, "/shop/1", "Shop")

		res, err := g.Flush(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(res.Flush.Written) != 3 || res.Flush.Index == nil {
			t.Fatalf("expected 3 files and an index, got %+v", res.Flush)
		}
		if res.IndexURL != "https://example.com/sitemaps/sitemap-index.xml" {
			t.Errorf("unexpected index URL %s", res.IndexURL)
		}
		if res.TotalEntries != 4 || len(res.Categories) != 2 {
			t.Errorf("unexpected stats: %d entries, %+v", res.TotalEntries, res.Categories)
		}
		if res.Categories[0] != (CategoryStat{Category: "Shop", Files: 1, Entries: 1}) {
			t.Errorf("unexpected first category: %+v", res.Categories[0])
		}

		index, err := os.ReadFile(filepath.Join(cfg.OutputDir, "sitemap-index.xml"))
		if err != nil {
			t.Fatalf("failed to read index: %v", err)
		}
		if !strings.Contains(string(index), "<loc>https://example.com/sitemaps/sitemap_blog_1_14-03-2026_15-09.xml</loc>") {
			t.Errorf("unexpected index:\n%s", index)
		}

		if res.RunID == "" {
			t.Fatal("expected the run to be journaled")
		}
		j, err := database.Open(cfg.JournalDir, database.Options{EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open journal: %v", err)
		}
		defer j.Close()
		run, err := j.GetFlush(context.Background(), res.RunID)
		if err != nil {
			t.Fatalf("failed to read run: %v", err)
		}
		if len(run.Files) != 4 || run.IndexFile != "sitemap-index.xml" {
			t.Errorf("expected 3 sitemaps plus the index, got %+v", run)
		}
	})

	t.Run("second run only rewrites changed files", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t)
		g := newTestGenerator(t, cfg)
		mustAdd(t, g, "/a", "blog")
		mustAdd(t, g, "/b", "blog")
		mustAdd(t, g, "/c", "blog")
		if _, err := g.Flush(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_ = g.Close()

		next := newTestGenerator(t, cfg)
		if next.Store().Len() != 3 {
			t.Fatalf("expected 3 loaded entries, got %d", next.Store().Len())
		}
		added, err := next.Add("/a", "blog", model.ChangeFrequencyDaily, time.Time{})
		if err != nil || added {
			t.Fatalf("expected loaded URL to be a duplicate, got %v %v", added, err)
		}
		mustAdd(t, next, "/d", "blog")

		res, err := next.Flush(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(res.Flush.Written) != 1 || res.Flush.Written[0].Sequence != 2 {
			t.Errorf("expected only blog#2 to be rewritten, got %+v", res.Flush.Written)
		}

		again, err := next.Flush(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again.Flush.Changed() || again.RunID != "" {
			t.Errorf("expected idle flush to write and journal nothing, got %+v", again)
		}
	})

	t.Run("retain removes stale URLs", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t)
		cfg.SaveToJournal = false
		g := newTestGenerator(t, cfg)
		mustAdd(t, g, "/a", "blog")
		mustAdd(t, g, "/b", "blog")
		mustAdd(t, g, "/c", "news")

		removed, err := g.Retain([]string{"/a", "https://example.com/c"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if removed != 1 || g.Store().Contains("https://example.com/b") {
			t.Errorf("expected /b to be removed, removed=%d", removed)
		}
	})

	t.Run("retain category leaves other categories alone", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t)
		cfg.SaveToJournal = false
		g := newTestGenerator(t, cfg)
		mustAdd(t, g, "/a", "blog")
		mustAdd(t, g, "/b", "blog")
		mustAdd(t, g, "/c", "news")

		removed, err := g.RetainCategory("Blog", []string{"/b"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if removed != 1 || g.Store().Contains("https://example.com/a") {
			t.Errorf("expected /a to be removed, removed=%d", removed)
		}
		if !g.Store().Contains("https://example.com/c") {
			t.Error("expected /c of another category to be kept")
		}
	})

	t.Run("closed generator is rejected", func(t *testing.T) {
		t.Parallel()

		g := newTestGenerator(t, testConfig(t))
		_ = g.Close()
		if _, err := g.Flush(context.Background()); !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	})
}

// TestGeneratorPing tests automatic and explicit pings.
func TestGeneratorPing(t *testing.T) {
	t.Parallel()

	t.Run("flush pings configured engines once", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		var got atomic.Value
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			got.Store(r.URL.Query().Get("sitemap"))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		cfg := testConfig(t)
		cfg.AutoPing = []model.SearchEngine{"local"}
		cfg.PingEndpoints = map[string]string{"local": srv.URL + "/ping?key=secret&sitemap="}
		g := newTestGenerator(t, cfg, WithHTTPClient(srv.Client()))

		mustAdd(t, g, "/a", "blog")
		res, err := g.Flush(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(res.Pings) != 1 || !res.Pings[0].OK() {
			t.Fatalf("expected one successful ping, got %+v", res.Pings)
		}
		if got.Load() != "https://example.com/sitemaps/sitemap-index.xml" {
			t.Errorf("unexpected announced URL %v", got.Load())
		}

		if _, err := g.Flush(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hits.Load() != 1 {
			t.Errorf("expected no ping for an idle flush, got %d requests", hits.Load())
		}

		j, err := database.Open(cfg.JournalDir, database.Options{EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open journal: %v", err)
		}
		defer j.Close()
		run, err := j.GetFlush(context.Background(), res.RunID)
		if err != nil {
			t.Fatalf("failed to read run: %v", err)
		}
		if len(run.Pings) != 1 {
			t.Fatalf("expected journaled ping, got %+v", run.Pings)
		}
		if strings.Contains(run.Pings[0].URL, "secret") {
			t.Errorf("expected ping key to be redacted in the journal, got %s", run.Pings[0].URL)
		}
	})

	t.Run("explicit ping without index fails", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t)
		cfg.IndexFilename = ""
		g := newTestGenerator(t, cfg)
		if _, err := g.Ping(context.Background(), model.BuiltinSearchEngines()); !errors.Is(err, ErrNoIndex) {
			t.Errorf("expected ErrNoIndex, got %v", err)
		}
		if g.IndexURL() != "" {
			t.Errorf("expected empty index URL, got %s", g.IndexURL())
		}
	})

	t.Run("explicit ping reports rejections", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		cfg := testConfig(t)
		cfg.PingEndpoints = map[string]string{"local": srv.URL + "/?s="}
		g := newTestGenerator(t, cfg)

		results, err := g.Ping(context.Background(), []model.SearchEngine{"local"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 1 || results[0].OK() || results[0].StatusCode != http.StatusServiceUnavailable {
			t.Errorf("expected a rejected ping, got %+v", results)
		}
	})
}

// TestGeneratorObserver tests that the observer sees stored entries.
func TestGeneratorObserver(t *testing.T) {
	t.Parallel()

	var seen []string
	cfg := testConfig(t)
	cfg.SaveToJournal = false
	g := newTestGenerator(t, cfg, WithAddObserver(func(e model.Entry) {
		seen = append(seen, e.URL)
	}))

	mustAdd(t, g, "/a", "blog")
	_, _ = g.Add("/a", "blog", model.ChangeFrequencyDaily, time.Time{})

	if len(seen) != 1 || seen[0] != "https://example.com/a" {
		t.Errorf("expected one observed entry, got %v", seen)
	}
}
