package config

import (
	"time"

	"github.com/nao1215/sitemapgen/internal/model"
)

// JournalFile is the journal section of the configuration file.
type JournalFile struct {
	// Dir overrides the XDG data directory.
	Dir string `yaml:"dir,omitempty"`

	// Enabled toggles journaling. Nil keeps the default.
	Enabled *bool `yaml:"enabled,omitempty"`
}

// PingFile is the ping section of the configuration file.
type PingFile struct {
	// Auto lists engines pinged after every flush that changed files.
	Auto []string `yaml:"auto,omitempty"`

	// Endpoints maps custom engine names to ping endpoints.
	// Built-in names may be listed to override their endpoint.
	Endpoints map[string]string `yaml:"endpoints,omitempty"`

	// Timeout is the timeout of a single ping, e.g. "10s".
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// File represents the structure of the .sitemapgen configuration file.
// Zero values leave the corresponding Config field untouched.
type File struct {
	BaseURL           string      `yaml:"baseUrl,omitempty"`
	OutputDir         string      `yaml:"outputDir,omitempty"`
	Subdirectory      string      `yaml:"subdirectory,omitempty"`
	BaseFilename      string      `yaml:"baseFilename,omitempty"`
	IndexFilename     *string     `yaml:"indexFilename,omitempty"`
	MaxEntriesPerFile int         `yaml:"maxEntriesPerFile,omitempty"`
	MaxWorkers        int         `yaml:"maxWorkers,omitempty"`
	Ping              PingFile    `yaml:"ping,omitempty"`
	Journal           JournalFile `yaml:"journal,omitempty"`
}

// Apply copies the values set in the file onto cfg.
func (f *File) Apply(cfg *Config) error {
	if f.BaseURL != "" {
		cfg.BaseURL = f.BaseURL
	}
	if f.OutputDir != "" {
		cfg.OutputDir = f.OutputDir
	}
	if f.Subdirectory != "" {
		cfg.Subdirectory = f.Subdirectory
	}
	if f.BaseFilename != "" {
		cfg.BaseFilename = f.BaseFilename
	}
	if f.IndexFilename != nil {
		cfg.IndexFilename = *f.IndexFilename
	}
	if f.MaxEntriesPerFile != 0 {
		cfg.MaxEntriesPerFile = f.MaxEntriesPerFile
	}
	if f.MaxWorkers != 0 {
		cfg.MaxWorkers = f.MaxWorkers
	}
	if f.Ping.Timeout != 0 {
		cfg.PingTimeout = f.Ping.Timeout
	}
	if len(f.Ping.Endpoints) > 0 {
		if cfg.PingEndpoints == nil {
			cfg.PingEndpoints = make(map[string]string, len(f.Ping.Endpoints))
		}
		for name, endpoint := range f.Ping.Endpoints {
			engine, err := model.ParseSearchEngine(name)
			if err != nil {
				return err
			}
			cfg.PingEndpoints[engine.String()] = endpoint
		}
	}
	if len(f.Ping.Auto) > 0 {
		engines := make([]model.SearchEngine, 0, len(f.Ping.Auto))
		for _, name := range f.Ping.Auto {
			engine, err := model.ParseSearchEngine(name)
			if err != nil {
				return err
			}
			engines = append(engines, engine)
		}
		cfg.AutoPing = engines
	}
	if f.Journal.Dir != "" {
		cfg.JournalDir = f.Journal.Dir
	}
	if f.Journal.Enabled != nil {
		cfg.SaveToJournal = *f.Journal.Enabled
	}
	return nil
}
