package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/sitemapgen/internal/database"
	"github.com/nao1215/sitemapgen/internal/generator"
)

// MarkdownWriter outputs reports in GitHub Flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteFlush outputs the flush outcome in Markdown format.
func (w *MarkdownWriter) WriteFlush(res *generator.Result) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Sitemap Flush Report")
	md.PlainText("")

	changed := res.Flush != nil && res.Flush.Changed()
	rows := [][]string{
		{"Total Entries", strconv.Itoa(res.TotalEntries)},
		{"Categories", strconv.Itoa(len(res.Categories))},
	}
	if res.Flush != nil && (changed || len(res.Flush.Failed) > 0) {
		rows = append([][]string{
			{"Started", res.Flush.Started.Format(timeLayout)},
			{"Files Written", strconv.Itoa(len(res.Flush.Written))},
			{"Files Failed", strconv.Itoa(len(res.Flush.Failed))},
		}, rows...)
	}
	if res.RunID != "" {
		rows = append([][]string{{"Run", "`" + res.RunID + "`"}}, rows...)
	}
	if res.IndexURL != "" {
		rows = append(rows, []string{"Index", res.IndexURL})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	msgs := failures(res)
	switch {
	case len(msgs) > 0:
		md.Warningf("%d problem(s) occurred. Failed files stay pending and are retried on the next flush.", len(msgs))
	case changed:
		md.Note("Only changed sitemap files were rewritten.")
	default:
		md.Tip("No changes: every sitemap file is up to date.")
	}
	md.PlainText("")

	if changed && len(res.Flush.Written) > 0 {
		md.H2("Written Files")
		md.PlainText("")
		fileRows := make([][]string, 0, len(res.Flush.Written))
		for _, f := range res.Flush.Written {
			fileRows = append(fileRows, []string{
				"`" + f.Filename + "`",
				f.Category,
				strconv.Itoa(f.Entries),
				strconv.Itoa(f.Size),
				truncateString(f.Checksum, 16),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"File", "Category", "Entries", "Bytes", "SHA3-256"},
			Rows:   fileRows,
		})
		md.PlainText("")
	}

	if len(res.Categories) > 0 {
		md.H2("Categories")
		md.PlainText("")
		catRows := make([][]string, 0, len(res.Categories))
		for _, c := range res.Categories {
			catRows = append(catRows, []string{c.Category, strconv.Itoa(c.Files), strconv.Itoa(c.Entries)})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Category", "Files", "Entries"},
			Rows:   catRows,
		})
		md.PlainText("")
		w.writePieChart(md, res.Categories)
	}

	if len(res.Pings) > 0 {
		md.H2("Search Engine Pings")
		md.PlainText("")
		pingRows := make([][]string, 0, len(res.Pings))
		for _, p := range res.Pings {
			status := "✅"
			if !p.OK() {
				status = "❌"
			}
			code := "-"
			if p.StatusCode != 0 {
				code = strconv.Itoa(p.StatusCode)
			}
			pingRows = append(pingRows, []string{p.Engine.DisplayName(), status, code})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Engine", "Result", "Status"},
			Rows:   pingRows,
		})
		md.PlainText("")
	}

	if len(msgs) > 0 {
		md.H2("Errors")
		md.PlainText("")
		md.BulletList(msgs...)
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writePieChart writes a mermaid pie chart of entries per category.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, stats []generator.CategoryStat) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Entries per Category"),
		piechart.WithShowData(true),
	)
	empty := true
	for _, c := range stats {
		if c.Entries > 0 {
			chart.LabelAndIntValue(c.Category, uint64(c.Entries))
			empty = false
		}
	}
	if empty {
		return
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// WriteHistory outputs journaled runs as a Markdown table.
func (w *MarkdownWriter) WriteHistory(runs []database.FlushRun) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Sitemap Flush History")
	md.PlainText("")

	if len(runs) == 0 {
		md.PlainText("No flush runs recorded.")
		md.PlainText("")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		entries := 0
		for _, f := range run.Files {
			if f.Category != "" {
				entries += f.Entries
			}
		}
		status := "✅"
		if run.Failed > 0 || run.Error != "" {
			status = "❌"
		}
		pings := "-"
		if len(run.Pings) > 0 {
			ok := 0
			for _, p := range run.Pings {
				if p.Error == "" {
					ok++
				}
			}
			pings = strconv.Itoa(ok) + "/" + strconv.Itoa(len(run.Pings))
		}
		rows = append(rows, []string{
			run.Started.Local().Format(timeLayout),
			status,
			strconv.Itoa(len(run.Files)),
			strconv.Itoa(entries),
			pings,
			"`" + shortID(run.ID) + "`",
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Started", "Result", "Files", "Entries", "Pings", "Run"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// shortID returns the first block of a run UUID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitemapgen](https://github.com/nao1215/sitemapgen)*")
}
