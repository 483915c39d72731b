package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitemapgen.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitemapgen",
		Short: "Incremental, category-partitioned sitemap generator",
		Long: `sitemapgen maintains sitemap XML files for a web site.

URLs are grouped by category into files of at most maxEntriesPerFile
entries. Existing files in the output directory are loaded on start, and
only files whose content changed are rewritten. A sitemap index listing
every file is kept up to date and can be announced to search engines.

Settings are read from .sitemapgen in the current or home directory
(see "sitemapgen init"); flags override the file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .sitemapgen in current or home directory)")
	cmd.PersistentFlags().String("base-url", "", "Site base URL (overrides baseUrl)")
	cmd.PersistentFlags().String("output-dir", "", "Sitemap output directory (overrides outputDir)")

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewAddCmd())
	cmd.AddCommand(NewRemoveCmd())
	cmd.AddCommand(NewGenerateCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewPingCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
