package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/nao1215/sitemapgen/internal/generator"
	"github.com/nao1215/sitemapgen/internal/model"
)

// listEntry is one line of a URL list file.
type listEntry struct {
	URL             string
	Category        string
	ChangeFrequency model.ChangeFrequency
	LastModified    time.Time
}

// parseList reads url<TAB>category<TAB>changefreq[<TAB>lastmod] lines.
// Blank lines and lines starting with # are skipped. An empty changefreq
// column omits <changefreq> for that URL.
func parseList(r io.Reader) ([]listEntry, error) {
	var entries []listEntry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if trimmed := strings.TrimSpace(line); trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 || len(fields) > 4 {
			return nil, fmt.Errorf("line %d: expected 3 or 4 tab-separated fields, got %d", lineNo, len(fields))
		}

		e := listEntry{
			URL:      strings.TrimSpace(fields[0]),
			Category: strings.TrimSpace(fields[1]),
		}
		if e.URL == "" {
			return nil, fmt.Errorf("line %d: empty URL", lineNo)
		}
		if freq := strings.TrimSpace(fields[2]); freq != "" {
			f, err := model.ParseChangeFrequency(freq)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			e.ChangeFrequency = f
		}
		if len(fields) == 4 {
			t, err := parseLastMod(strings.TrimSpace(fields[3]))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			e.LastModified = t
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// readList parses the list file at path.
func readList(path string) ([]listEntry, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open list file: %w", err)
	}
	defer f.Close()

	entries, err := parseList(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// applyList adds every entry to gen and, when prune is set, removes the
// stored URLs the list no longer contains. It returns the number of URLs
// added and removed.
func applyList(gen *generator.Generator, entries []listEntry, prune bool) (added, removed int, err error) {
	if added, err = addEntries(gen, entries); err != nil {
		return added, 0, err
	}
	if prune {
		removed, err = gen.Retain(entryURLs(entries))
	}
	return added, removed, err
}

// addEntries adds entries to gen and returns how many were new.
func addEntries(gen *generator.Generator, entries []listEntry) (int, error) {
	added := 0
	for _, e := range entries {
		ok, err := gen.Add(e.URL, e.Category, e.ChangeFrequency, e.LastModified)
		if err != nil {
			return added, fmt.Errorf("failed to add %s: %w", e.URL, err)
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// pruneCategory removes the stored URLs of category missing from entries.
func pruneCategory(gen *generator.Generator, category string, entries []listEntry) (int, error) {
	return gen.RetainCategory(category, entryURLs(entries))
}

func entryURLs(entries []listEntry) []string {
	urls := make([]string, len(entries))
	for i, e := range entries {
		urls[i] = e.URL
	}
	return urls
}
