package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sitemapgen/internal/database"
	"github.com/nao1215/sitemapgen/internal/generator"
	"github.com/nao1215/sitemapgen/internal/model"
	"github.com/nao1215/sitemapgen/internal/ping"
	"github.com/nao1215/sitemapgen/internal/sitemap"
)

var testStarted = time.Date(2026, time.March, 14, 15, 9, 0, 0, time.UTC)

// createTestResult creates a flush result with sample data for testing.
func createTestResult() *generator.Result {
	return &generator.Result{
		RunID:    "0b6c7a4e-5f7d-4c1b-9a55-1f7e3f2d9c10",
		IndexURL: "https://example.com/sitemaps/sitemap-index.xml",
		Flush: &sitemap.FlushResult{
			Started:  testStarted,
			Finished: testStarted.Add(40 * time.Millisecond),
			Written: []sitemap.FileResult{
				{Filename: "sitemap_blog_1_14-03-2026_15-09.xml", Category: "blog", Sequence: 1, Entries: 2, Size: 420, Checksum: "0123456789abcdef0123456789abcdef"},
				{Filename: "sitemap_shop_1_14-03-2026_15-09.xml", Category: "shop", Sequence: 1, Entries: 1, Size: 300, Checksum: "fedcba9876543210fedcba9876543210"},
			},
			Index: &sitemap.FileResult{Filename: "sitemap-index.xml", Entries: 2},
		},
		Pings: []ping.Result{
			{Engine: model.SearchEngineGoogle, StatusCode: 200},
			{Engine: model.SearchEngineBing, StatusCode: 410, Err: ping.ErrUnexpectedStatus},
		},
		Categories: []generator.CategoryStat{
			{Category: "blog", Files: 1, Entries: 2},
			{Category: "shop", Files: 1, Entries: 1},
		},
		TotalEntries: 3,
	}
}

func createIdleResult() *generator.Result {
	return &generator.Result{
		Flush:        &sitemap.FlushResult{Started: testStarted, Finished: testStarted},
		Categories:   []generator.CategoryStat{{Category: "blog", Files: 1, Entries: 2}},
		TotalEntries: 2,
	}
}

func createTestHistory() []database.FlushRun {
	return []database.FlushRun{
		{
			ID:        "11111111-2222-3333-4444-555555555555",
			Started:   testStarted.Add(time.Hour),
			Finished:  testStarted.Add(time.Hour),
			OutputDir: "/srv/sitemaps",
			Failed:    1,
			Error:     "permission denied",
			Files:     []database.FlushedFile{{Filename: "sitemap_blog_2_14-03-2026_16-09.xml", Category: "blog", Entries: 5}},
		},
		{
			ID:        "66666666-7777-8888-9999-000000000000",
			Started:   testStarted,
			Finished:  testStarted,
			OutputDir: "/srv/sitemaps",
			IndexFile: "sitemap-index.xml",
			Files: []database.FlushedFile{
				{Filename: "sitemap_blog_1_14-03-2026_15-09.xml", Category: "blog", Entries: 2, Checksum: "abc"},
				{Filename: "sitemap-index.xml", Entries: 1},
			},
			Pings: []database.PingRecord{{Engine: "google", StatusCode: 200}},
		},
	}
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes flush summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteFlush(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"SITEMAP FLUSH",
			"Written:  2 file(s)",
			"[+] sitemap_blog_1_14-03-2026_15-09.xml (2 entries)",
			"https://example.com/sitemaps/sitemap-index.xml",
			"CATEGORIES",
			"[ok] Google",
			"[FAILED] Bing",
			"[!] Bing: unexpected HTTP status",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
		if strings.Contains(output, "sha3-256") {
			t.Error("expected checksums only in verbose mode")
		}
	})

	t.Run("verbose lists checksums", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).WriteFlush(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "sha3-256 0123456789abcdef") {
			t.Errorf("expected checksum in verbose output:\n%s", buf.String())
		}
	})

	t.Run("idle flush reports no changes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteFlush(createIdleResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No changes") {
			t.Errorf("expected no-change notice:\n%s", buf.String())
		}
	})

	t.Run("writes history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).WriteHistory(createTestHistory()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "FAILED") || !strings.Contains(output, "error: permission denied") {
			t.Errorf("expected failed run details:\n%s", output)
		}
		if !strings.Contains(output, "66666666-7777-8888-9999-000000000000") {
			t.Errorf("expected run id:\n%s", output)
		}
	})

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteHistory(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No flush runs recorded") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes tables, chart and warning", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewMarkdownWriter(&buf).WriteFlush(createTestResult())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n == 0 {
			t.Error("expected non-zero length")
		}

		output := buf.String()
		for _, want := range []string{
			"# Sitemap Flush Report",
			"## Written Files",
			"`sitemap_shop_1_14-03-2026_15-09.xml`",
			"## Categories",
			"```mermaid",
			"pie",
			"Entries per Category",
			"## Search Engine Pings",
			"[!WARNING]",
			"## Errors",
			"sitemapgen",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("idle flush shows tip without file table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteFlush(createIdleResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "[!TIP]") {
			t.Errorf("expected tip alert:\n%s", output)
		}
		if strings.Contains(output, "## Written Files") {
			t.Errorf("expected no file table:\n%s", output)
		}
	})

	t.Run("writes history table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteHistory(createTestHistory()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "# Sitemap Flush History") || !strings.Contains(output, "`66666666`") {
			t.Errorf("unexpected history:\n%s", output)
		}
		if !strings.Contains(output, "1/1") {
			t.Errorf("expected ping ratio:\n%s", output)
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("flush document", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithVersion("v1.2.3")).WriteFlush(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("expected compact single-line output")
		}

		var doc struct {
			Version string `json:"version"`
			Result  struct {
				RunID        string `json:"runId"`
				TotalEntries int    `json:"totalEntries"`
				Flush        struct {
					Written []struct {
						Filename string `json:"filename"`
						Checksum string `json:"checksum"`
					} `json:"written"`
				} `json:"flush"`
			} `json:"result"`
			Errors []string `json:"errors"`
		}
		if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if doc.Version != "v1.2.3" || doc.Result.TotalEntries != 3 || len(doc.Result.Flush.Written) != 2 {
			t.Errorf("unexpected document: %+v", doc)
		}
		if len(doc.Errors) != 1 {
			t.Errorf("expected 1 error, got %v", doc.Errors)
		}
	})

	t.Run("pretty printed empty history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).WriteHistory(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\"runs\": []") {
			t.Errorf("expected empty runs array:\n%s", buf.String())
		}
	})
}

// errWriter fails every write.
type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

// TestMultiWriter tests fan-out to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		m := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))
		n, err := m.WriteFlush(createTestResult())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("expected %d bytes, got %d", text.Len()+js.Len(), n)
		}

		text.Reset()
		js.Reset()
		if _, err := m.WriteHistory(createTestHistory()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected history in both outputs")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		m := NewMultiWriter(NewSimpleWriter(errWriter{}), NewSimpleWriter(&buf))
		if _, err := m.WriteFlush(createTestResult()); err == nil {
			t.Error("expected error")
		}
		if buf.Len() != 0 {
			t.Error("expected second writer to be skipped")
		}
	})
}

// TestTruncateString tests truncation with ellipsis.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"0123456789abcdef", 8, "01234..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
