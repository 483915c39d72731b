package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/sitemapgen/internal/model"
	"github.com/nao1215/sitemapgen/internal/sitemap"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitemapgen"

	// DefaultOutputDir is the directory sitemap files are written to,
	// relative to the working directory.
	DefaultOutputDir = "wwwroot/sitemaps"

	// DefaultSubdirectory is the URL path under BaseURL where the output
	// directory is served. It is used to build the <loc> of index entries.
	DefaultSubdirectory = "sitemaps"

	// DefaultBaseFilename prefixes every sitemap file name.
	DefaultBaseFilename = "sitemap"

	// DefaultIndexFilename is the sitemap index file name without extension.
	DefaultIndexFilename = "sitemap-index"

	// DefaultMaxEntriesPerFile is the per-file limit of the sitemap protocol.
	DefaultMaxEntriesPerFile = 50000

	// DefaultMaxWorkers bounds the goroutines rendering the entries of one file.
	DefaultMaxWorkers = sitemap.DefaultWorkers

	// DefaultPingTimeout is the timeout of a single search engine ping.
	DefaultPingTimeout = 10 * time.Second
)

// Config holds all configuration options for sitemapgen.
// It is populated from the configuration file and CLI flags, validated once,
// and then passed by value to the generator.
type Config struct {
	// BaseURL is the site root. Relative URLs given to Add are resolved
	// against it and index entries point below it. Required.
	BaseURL string

	// OutputDir is the local directory holding the sitemap files.
	OutputDir string

	// Subdirectory is the URL path under BaseURL where OutputDir is served.
	Subdirectory string

	// BaseFilename prefixes every sitemap file name. It must not contain
	// the block separator "_", path separators or glob metacharacters.
	BaseFilename string

	// IndexFilename is the index file name without extension.
	// An empty value disables the index.
	IndexFilename string

	// MaxEntriesPerFile is the capacity of one sitemap file.
	MaxEntriesPerFile int

	// MaxWorkers bounds the goroutines rendering entries in parallel.
	MaxWorkers int

	// AutoPing lists the search engines pinged after every flush that
	// changed at least one file. Empty disables automatic pings.
	AutoPing []model.SearchEngine

	// PingEndpoints maps custom engine names to ping endpoints. The
	// query-escaped index URL is appended to the endpoint.
	PingEndpoints map[string]string

	// PingTimeout is the timeout of a single ping request.
	PingTimeout time.Duration

	// JournalDir is the directory of the SQLite journal.
	// Defaults to the XDG data directory (~/.local/share/sitemapgen on Linux).
	JournalDir string

	// SaveToJournal records every flush and ping in the journal.
	SaveToJournal bool

	// Verbose enables debug logging.
	Verbose bool

	// JSONReport prints reports as JSON. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport prints reports as Markdown. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output path of the report; stdout when empty.
	ReportFile string

	// ConfigFilePath is the explicit configuration file path from --config.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		OutputDir:         DefaultOutputDir,
		Subdirectory:      DefaultSubdirectory,
		BaseFilename:      DefaultBaseFilename,
		IndexFilename:     DefaultIndexFilename,
		MaxEntriesPerFile: DefaultMaxEntriesPerFile,
		MaxWorkers:        DefaultMaxWorkers,
		PingTimeout:       DefaultPingTimeout,
		JournalDir:        XDGDataDir(),
		SaveToJournal:     true,
	}
}

// XDGDataDir returns the XDG data directory for sitemapgen.
// On Linux: ~/.local/share/sitemapgen
// On macOS: ~/Library/Application Support/sitemapgen
// On Windows: %LOCALAPPDATA%\sitemapgen
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrNoBaseURL
	}
	if _, err := model.ParseBaseURL(c.BaseURL); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}

	if c.OutputDir == "" {
		return ErrNoOutputDir
	}

	if err := sitemap.ValidateBaseFilename(c.BaseFilename); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidBaseFilename, c.BaseFilename)
	}

	// The index must not be picked up by the loader as a sitemap file.
	if c.IndexFilename != "" &&
		(strings.HasPrefix(c.IndexFilename, c.BaseFilename+sitemap.BlockSeparator) ||
			strings.ContainsAny(c.IndexFilename, `/\`)) {
		return fmt.Errorf("%w: %q", ErrInvalidIndexFilename, c.IndexFilename)
	}

	if c.MaxEntriesPerFile <= 0 {
		return ErrInvalidMaxEntries
	}

	if c.MaxWorkers <= 0 {
		return ErrInvalidMaxWorkers
	}

	if c.PingTimeout <= 0 {
		return ErrInvalidPingTimeout
	}

	for _, engine := range c.AutoPing {
		if _, err := c.PingEndpoint(engine); err != nil {
			return err
		}
	}

	if c.SaveToJournal && c.JournalDir == "" {
		return ErrNoJournalDir
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// PingEndpoint returns the endpoint used to ping engine. Custom endpoints
// from the configuration take precedence over built-in ones.
func (c *Config) PingEndpoint(engine model.SearchEngine) (string, error) {
	if endpoint, ok := c.PingEndpoints[engine.String()]; ok && endpoint != "" {
		return endpoint, nil
	}
	if engine.IsBuiltin() {
		return engine.PingEndpoint(), nil
	}
	return "", fmt.Errorf("%w: %q has no endpoint", model.ErrUnknownSearchEngine, engine)
}
