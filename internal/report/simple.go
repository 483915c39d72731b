package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/sitemapgen/internal/database"
	"github.com/nao1215/sitemapgen/internal/generator"
)

const timeLayout = "2006-01-02 15:04:05 MST"

// SimpleWriter outputs human-readable text reports.
type SimpleWriter struct {
	baseWriter

	// verbose lists every written file with its checksum.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteFlush outputs the flush outcome in human-readable format.
func (w *SimpleWriter) WriteFlush(res *generator.Result) (int, error) {
	var sb strings.Builder

	writeRule(&sb, "=")
	sb.WriteString("SITEMAP FLUSH\n")
	writeRule(&sb, "=")
	sb.WriteString("\n")

	if res.Flush == nil || !res.Flush.Changed() && len(res.Flush.Failed) == 0 {
		sb.WriteString("No changes: every sitemap file is up to date.\n")
	} else {
		if res.RunID != "" {
			sb.WriteString(fmt.Sprintf("Run:      %s\n", res.RunID))
		}
		sb.WriteString(fmt.Sprintf("Started:  %s\n", res.Flush.Started.Format(timeLayout)))
		sb.WriteString(fmt.Sprintf("Duration: %s\n", res.Flush.Finished.Sub(res.Flush.Started)))
		sb.WriteString(fmt.Sprintf("Written:  %d file(s)\n", len(res.Flush.Written)))
		sb.WriteString(fmt.Sprintf("Failed:   %d file(s)\n", len(res.Flush.Failed)))
		if res.Flush.Index != nil {
			sb.WriteString(fmt.Sprintf("Index:    %s\n", res.IndexURL))
		}

		if len(res.Flush.Written) > 0 {
			sb.WriteString("\n")
			for _, f := range res.Flush.Written {
				sb.WriteString(fmt.Sprintf("  [+] %s (%d entries)\n", f.Filename, f.Entries))
				if w.verbose {
					sb.WriteString(fmt.Sprintf("      sha3-256 %s\n", f.Checksum))
				}
			}
		}
	}

	sb.WriteString("\n")
	writeRule(&sb, "-")
	sb.WriteString("CATEGORIES\n")
	writeRule(&sb, "-")
	if len(res.Categories) == 0 {
		sb.WriteString("  No entries\n")
	}
	for _, c := range res.Categories {
		sb.WriteString(fmt.Sprintf("  %-20s %3d file(s) %7d entries\n", c.Category, c.Files, c.Entries))
	}
	sb.WriteString(fmt.Sprintf("  %-20s %7s %13d entries\n", "TOTAL", "", res.TotalEntries))

	if len(res.Pings) > 0 {
		sb.WriteString("\n")
		writeRule(&sb, "-")
		sb.WriteString("PINGS\n")
		writeRule(&sb, "-")
		for _, p := range res.Pings {
			status := "ok"
			if !p.OK() {
				status = "FAILED"
			}
			sb.WriteString(fmt.Sprintf("  [%s] %s\n", status, p.Engine.DisplayName()))
		}
	}

	if msgs := failures(res); len(msgs) > 0 {
		sb.WriteString("\n")
		writeRule(&sb, "-")
		sb.WriteString("ERRORS\n")
		writeRule(&sb, "-")
		for _, m := range msgs {
			sb.WriteString(fmt.Sprintf("  [!] %s\n", m))
		}
	}

	return w.output.Write([]byte(sb.String()))
}

// WriteHistory outputs journaled runs, one line per run.
func (w *SimpleWriter) WriteHistory(runs []database.FlushRun) (int, error) {
	var sb strings.Builder

	writeRule(&sb, "=")
	sb.WriteString("FLUSH HISTORY\n")
	writeRule(&sb, "=")

	if len(runs) == 0 {
		sb.WriteString("No flush runs recorded.\n")
		return w.output.Write([]byte(sb.String()))
	}

	for _, run := range runs {
		status := "ok"
		if run.Failed > 0 || run.Error != "" {
			status = "FAILED"
		}
		sb.WriteString(fmt.Sprintf("%s  %-6s %2d file(s)  %s\n",
			run.Started.Local().Format(timeLayout), status, len(run.Files), run.ID))
		if w.verbose {
			for _, f := range run.Files {
				sb.WriteString(fmt.Sprintf("    %s (%d entries) sha3-256 %s\n", f.Filename, f.Entries, f.Checksum))
			}
			for _, p := range run.Pings {
				sb.WriteString(fmt.Sprintf("    ping %s %d %s\n", p.Engine, p.StatusCode, p.Error))
			}
			if run.Error != "" {
				sb.WriteString(fmt.Sprintf("    error: %s\n", run.Error))
			}
		}
	}

	return w.output.Write([]byte(sb.String()))
}

func writeRule(sb *strings.Builder, char string) {
	sb.WriteString(strings.Repeat(char, 70))
	sb.WriteString("\n")
}
