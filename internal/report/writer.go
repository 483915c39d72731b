package report

import (
	"io"

	"github.com/nao1215/sitemapgen/internal/database"
	"github.com/nao1215/sitemapgen/internal/generator"
)

// Writer defines the interface for report output.
type Writer interface {
	// WriteFlush outputs the outcome of one flush.
	// Returns the number of bytes written and any error encountered.
	WriteFlush(res *generator.Result) (int, error)

	// WriteHistory outputs journaled flush runs, most recent first.
	WriteHistory(runs []database.FlushRun) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteFlush outputs the flush report to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) WriteFlush(res *generator.Result) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteFlush(res)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteHistory outputs the history to all configured Writers.
func (m *MultiWriter) WriteHistory(runs []database.FlushRun) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteHistory(runs)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// failures lists the error messages of a flush: failed buckets, a failed
// index and rejected pings.
func failures(res *generator.Result) []string {
	var msgs []string
	if res.Flush != nil {
		for _, f := range res.Flush.Failed {
			msgs = append(msgs, f.Error())
		}
		if res.Flush.IndexErr != nil {
			msgs = append(msgs, res.Flush.IndexErr.Error())
		}
	}
	for _, p := range res.Pings {
		if p.Err != nil {
			msgs = append(msgs, p.Engine.DisplayName()+": "+p.Err.Error())
		}
	}
	return msgs
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
