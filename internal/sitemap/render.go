package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"strings"
	"time"

	"github.com/nao1215/sitemapgen/internal/model"
	"golang.org/x/sync/errgroup"
)

// Namespace is the XML namespace of sitemap and sitemap index documents.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Signature is written as a comment at the top of every generated document.
const Signature = "Generated using sitemapgen *** https://github.com/nao1215/sitemapgen"

// lastModLayout is the W3C datetime profile required by the protocol.
const lastModLayout = time.RFC3339

// lastModFormats are accepted when reading <lastmod> back.
var lastModFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02",
}

type urlElement struct {
	XMLName    xml.Name `xml:"url"`
	Loc        string   `xml:"loc"`
	LastMod    string   `xml:"lastmod,omitempty"`
	ChangeFreq string   `xml:"changefreq,omitempty"`
}

type urlSetDocument struct {
	XMLName xml.Name     `xml:"urlset"`
	URLs    []urlElement `xml:"url"`
}

type sitemapElement struct {
	XMLName xml.Name `xml:"sitemap"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod,omitempty"`
}

type indexDocument struct {
	XMLName  xml.Name         `xml:"sitemapindex"`
	Sitemaps []sitemapElement `xml:"sitemap"`
}

func formatLastMod(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(lastModLayout)
}

// parseLastMod returns the zero time for values in no known format.
func parseLastMod(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range lastModFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func newURLElement(e model.Entry) urlElement {
	el := urlElement{
		Loc:     e.URL,
		LastMod: formatLastMod(e.LastModified),
	}
	if e.ChangeFrequency.IsValid() {
		el.ChangeFreq = e.ChangeFrequency.String()
	}
	return el
}

// renderEntries marshals each entry into the slot matching its position.
// At most workers entries are rendered at the same time.
func renderEntries(ctx context.Context, entries []model.Entry, workers int) ([][]byte, error) {
	slots := make([][]byte, len(entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, e := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := xml.MarshalIndent(newURLElement(e), "  ", "  ")
			if err != nil {
				return err
			}
			slots[i] = b
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slots, nil
}

// writePreamble writes the XML declaration and the signature comment.
func writePreamble(buf *bytes.Buffer) {
	buf.WriteString(xml.Header)
	buf.WriteString("<!-- ")
	buf.WriteString(Signature)
	buf.WriteString(" -->\n")
}

// assembleURLSet builds a <urlset> document from rendered slots, in slot order.
func assembleURLSet(slots [][]byte) []byte {
	var buf bytes.Buffer
	writePreamble(&buf)
	buf.WriteString(`<urlset xmlns="` + Namespace + `">` + "\n")
	for _, slot := range slots {
		buf.Write(slot)
		buf.WriteByte('\n')
	}
	buf.WriteString("</urlset>\n")
	return buf.Bytes()
}

// renderIndex builds a <sitemapindex> document.
func renderIndex(items []sitemapElement) ([]byte, error) {
	var buf bytes.Buffer
	writePreamble(&buf)
	buf.WriteString(`<sitemapindex xmlns="` + Namespace + `">` + "\n")
	for _, item := range items {
		b, err := xml.MarshalIndent(item, "  ", "  ")
		if err != nil {
			return nil, err
		}
		buf.Write(b)
		buf.WriteByte('\n')
	}
	buf.WriteString("</sitemapindex>\n")
	return buf.Bytes(), nil
}

// decodeURLSet parses a sitemap document into persisted entries of category.
func decodeURLSet(data []byte, category string) ([]model.Entry, error) {
	var doc urlSetDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	entries := make([]model.Entry, 0, len(doc.URLs))
	for _, u := range doc.URLs {
		loc := strings.TrimSpace(u.Loc)
		if loc == "" {
			continue
		}
		// Unknown frequencies are kept as ChangeFrequencyUnknown.
		freq, _ := model.ParseChangeFrequency(u.ChangeFreq)
		entries = append(entries, model.Entry{
			URL:             loc,
			Category:        category,
			ChangeFrequency: freq,
			LastModified:    parseLastMod(u.LastMod),
			Persisted:       true,
		})
	}
	return entries, nil
}
