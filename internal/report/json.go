package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/sitemapgen/internal/database"
	"github.com/nao1215/sitemapgen/internal/generator"
)

// JSONWriter outputs reports in JSON format.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is stored in every document.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the sitemapgen version in every document.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// FlushDocument is the JSON document written for a flush.
// Errors are flattened to strings because error values do not marshal.
type FlushDocument struct {
	Version string            `json:"version,omitempty"`
	Result  *generator.Result `json:"result"`
	Errors  []string          `json:"errors,omitempty"`
}

// HistoryDocument is the JSON document written for the history.
type HistoryDocument struct {
	Version string              `json:"version,omitempty"`
	Runs    []database.FlushRun `json:"runs"`
}

// WriteFlush outputs the flush outcome in JSON format.
func (w *JSONWriter) WriteFlush(res *generator.Result) (int, error) {
	return w.writeJSON(FlushDocument{
		Version: w.version,
		Result:  res,
		Errors:  failures(res),
	})
}

// WriteHistory outputs journaled runs in JSON format.
func (w *JSONWriter) WriteHistory(runs []database.FlushRun) (int, error) {
	if runs == nil {
		runs = []database.FlushRun{}
	}
	return w.writeJSON(HistoryDocument{Version: w.version, Runs: runs})
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output.
	data = append(data, '\n')
	return w.output.Write(data)
}
