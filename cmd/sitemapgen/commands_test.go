package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/sitemapgen/internal/report"
)

// testEnv is a config file, output directory and journal in a temp dir.
type testEnv struct {
	configPath string
	outputDir  string
	journalDir string
}

func newTestEnv(t *testing.T, maxEntries int) testEnv {
	t.Helper()
	return newTestEnvForSite(t, "https://example.com", maxEntries)
}

func newTestEnvForSite(t *testing.T, baseURL string, maxEntries int) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		configPath: filepath.Join(dir, ".sitemapgen"),
		outputDir:  filepath.Join(dir, "wwwroot", "sitemaps"),
		journalDir: filepath.Join(dir, "journal"),
	}
	content := fmt.Sprintf(`baseUrl: %s
outputDir: %s
maxEntriesPerFile: %d
journal:
  dir: %s
`, baseURL, env.outputDir, maxEntries, env.journalDir)
	if err := os.WriteFile(env.configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return env
}

// run executes the root command and returns stdout.
func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"-c", e.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func (e testEnv) glob(t *testing.T, pattern string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(e.outputDir, pattern))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

func TestAddAndRemoveCmd(t *testing.T) {
	env := newTestEnv(t, 2)

	out, err := env.run(t, "add", "/blog/a", "/blog/b", "/blog/c", "--category", "blog", "--changefreq", "weekly")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !strings.Contains(out, "SITEMAP FLUSH") {
		t.Errorf("expected flush report, got %q", out)
	}

	files := env.glob(t, "sitemap_blog_*.xml")
	if len(files) != 2 {
		t.Fatalf("expected 2 blog files for 3 URLs at capacity 2, got %v", files)
	}
	index, err := os.ReadFile(filepath.Join(env.outputDir, "sitemap-index.xml"))
	if err != nil {
		t.Fatalf("index not written: %v", err)
	}
	if got := strings.Count(string(index), "<sitemap>"); got != 2 {
		t.Errorf("expected 2 index entries, got %d", got)
	}
	if !strings.Contains(string(index), "https://example.com/sitemaps/sitemap_blog_1_") {
		t.Errorf("index does not point below the subdirectory:\n%s", index)
	}

	if _, err := env.run(t, "remove", "https://example.com/blog/b"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	var all strings.Builder
	for _, f := range env.glob(t, "sitemap_blog_*.xml") {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatal(err)
		}
		all.Write(data)
	}
	if strings.Contains(all.String(), "https://example.com/blog/b<") {
		t.Error("removed URL is still in a sitemap file")
	}
	if !strings.Contains(all.String(), "https://example.com/blog/a<") {
		t.Error("kept URL is missing")
	}
}

func TestAddCmdValidation(t *testing.T) {
	env := newTestEnv(t, 10)

	tests := []struct {
		name string
		args []string
	}{
		{"missing category", []string{"add", "/a"}},
		{"invalid category", []string{"add", "/a", "--category", "a_b"}},
		{"invalid changefreq", []string{"add", "/a", "--category", "blog", "--changefreq", "sometimes"}},
		{"invalid lastmod", []string{"add", "/a", "--category", "blog", "--lastmod", "soon"}},
		{"unparsable url", []string{"add", "http://[bad", "--category", "blog"}},
		{"conflicting formats", []string{"add", "/a", "--category", "blog", "--json", "--markdown"}},
	}
	for _, tt := range tests {
		if _, err := env.run(t, tt.args...); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestGenerateCmd(t *testing.T) {
	env := newTestEnv(t, 50000)
	listPath := filepath.Join(t.TempDir(), "urls.tsv")
	list := "# site\n/\tpages\tdaily\n/blog/a\tblog\tweekly\t2026-03-14\n/p/1\tproducts\t\n"
	if err := os.WriteFile(listPath, []byte(list), 0600); err != nil {
		t.Fatal(err)
	}

	out, err := env.run(t, "generate", "--list", listPath, "--json")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	var doc report.FlushDocument
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON report: %v\n%s", err, out)
	}
	if doc.Result == nil || doc.Result.TotalEntries != 3 {
		t.Fatalf("expected 3 entries, got %+v", doc.Result)
	}
	if len(doc.Result.Categories) != 3 {
		t.Errorf("expected 3 categories, got %+v", doc.Result.Categories)
	}
	if doc.Result.RunID == "" {
		t.Error("expected the run to be journaled")
	}

	t.Run("second run writes nothing", func(t *testing.T) {
		out, err := env.run(t, "generate", "--list", listPath, "--json")
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		var doc report.FlushDocument
		if err := json.Unmarshal([]byte(out), &doc); err != nil {
			t.Fatal(err)
		}
		if len(doc.Result.Flush.Written) != 0 || doc.Result.Flush.Index != nil {
			t.Errorf("expected no writes, got %+v", doc.Result.Flush)
		}
	})

	t.Run("prune drops URLs missing from the list", func(t *testing.T) {
		if err := os.WriteFile(listPath, []byte("/\tpages\tdaily\n"), 0600); err != nil {
			t.Fatal(err)
		}
		out, err := env.run(t, "generate", "--list", listPath, "--prune", "--json")
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		var doc report.FlushDocument
		if err := json.Unmarshal([]byte(out), &doc); err != nil {
			t.Fatal(err)
		}
		if doc.Result.TotalEntries != 1 {
			t.Errorf("expected 1 entry after prune, got %d", doc.Result.TotalEntries)
		}
	})

	t.Run("markdown report to file", func(t *testing.T) {
		reportPath := filepath.Join(t.TempDir(), "reports", "flush.md")
		if _, err := env.run(t, "generate", "--list", listPath, "--markdown", "-o", reportPath); err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		data, err := os.ReadFile(reportPath)
		if err != nil {
			t.Fatalf("report not written: %v", err)
		}
		if !strings.Contains(string(data), "#") {
			t.Errorf("expected Markdown headings, got %q", data)
		}
	})

	t.Run("missing list flag", func(t *testing.T) {
		if _, err := env.run(t, "generate"); err == nil {
			t.Error("expected error without --list")
		}
	})
}

func TestHistoryCmd(t *testing.T) {
	env := newTestEnv(t, 10)

	t.Run("no journal yet", func(t *testing.T) {
		out, err := env.run(t, "history")
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(out, "No journal found") {
			t.Errorf("unexpected output %q", out)
		}
	})

	if _, err := env.run(t, "add", "/a", "--category", "blog"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := env.run(t, "add", "/b", "--category", "news"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	out, err := env.run(t, "history", "--json")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	var doc report.HistoryDocument
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(doc.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(doc.Runs))
	}

	out, err = env.run(t, "history", "--run", doc.Runs[0].ID)
	if err != nil {
		t.Fatalf("history --run failed: %v", err)
	}
	if !strings.Contains(out, doc.Runs[0].ID) {
		t.Errorf("expected run ID in output, got %q", out)
	}

	if _, err := env.run(t, "history", "--run", "missing"); err == nil {
		t.Error("expected error for unknown run")
	}

	out, err = env.run(t, "history", "--pings")
	if err != nil {
		t.Fatalf("history --pings failed: %v", err)
	}
	if !strings.Contains(out, "No pings recorded") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestPingCmdWithoutEngines(t *testing.T) {
	env := newTestEnv(t, 10)
	if _, err := env.run(t, "ping"); err == nil {
		t.Error("expected error when no engine is configured")
	}
	if _, err := env.run(t, "ping", "unknown-engine"); err == nil {
		t.Error("expected error for an engine without endpoint")
	}
}

func TestCrawlCmd(t *testing.T) {
	mux := http.NewServeMux()
	page := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Header().Set("Last-Modified", "Sat, 14 Mar 2026 15:09:26 GMT")
			_, _ = w.Write([]byte(body)) //nolint:errcheck
		}
	}
	mux.HandleFunc("/{$}", page(`<a href="/docs/a">a</a><a href="/docs/b">b</a><a href="/admin/panel">admin</a>`))
	mux.HandleFunc("/docs/a", page(`A`))
	mux.HandleFunc("/docs/b", page(`<meta name="robots" content="noindex">`))
	mux.HandleFunc("/admin/panel", page(`secret`))
	server := httptest.NewServer(mux)
	defer server.Close()

	env := newTestEnvForSite(t, server.URL, 100)
	if _, err := env.run(t, "add", "/gone", "--category", "pages"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := env.run(t, "add", "/other", "--category", "news"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	out, err := env.run(t, "crawl", "--category", "pages", "--ignore", "/admin/**",
		"--delay", "0", "--prune", "--json")
	if err != nil {
		t.Fatalf("crawl failed: %v", err)
	}

	var doc report.FlushDocument
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON report: %v\n%s", err, out)
	}
	// "/" and /docs/a from the crawl, /other of the untouched category.
	if doc.Result.TotalEntries != 3 {
		t.Errorf("expected 3 entries, got %d", doc.Result.TotalEntries)
	}

	var all strings.Builder
	for _, f := range env.glob(t, "sitemap_pages_*.xml") {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatal(err)
		}
		all.Write(data)
	}
	content := all.String()
	if !strings.Contains(content, server.URL+"/docs/a<") {
		t.Errorf("crawled page missing:\n%s", content)
	}
	for _, unwanted := range []string{"/docs/b<", "/admin/panel<", "/gone<"} {
		if strings.Contains(content, unwanted) {
			t.Errorf("did not expect %s in sitemap:\n%s", unwanted, content)
		}
	}
	if !strings.Contains(content, "<lastmod>2026-03-14T15:09:26") {
		t.Errorf("expected lastmod from Last-Modified header:\n%s", content)
	}
}
