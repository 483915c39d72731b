package main

import (
	"context"
	"fmt"

	"github.com/nao1215/sitemapgen/internal/model"
	"github.com/spf13/cobra"
)

// NewAddCmd creates the add command.
func NewAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add URL...",
		Short: "Add URLs to the sitemaps and flush",
		Long: `Add stores one or more URLs under a category and writes the changed files.

Relative URLs are resolved against baseUrl. A URL that is already stored
is left untouched, whatever its category.

Examples:
  # Add a blog post
  sitemapgen add /blog/hello-world --category blog --changefreq weekly

  # Add several product pages with a modification date
  sitemapgen add /p/1 /p/2 --category products --lastmod 2026-03-14`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAddCmd,
	}

	cmd.Flags().String("category", "", "Category of the URLs (required)")
	cmd.Flags().String("changefreq", "",
		"Change frequency: always, hourly, daily, weekly, monthly, yearly or never")
	cmd.Flags().String("lastmod", "", "Last modification date (RFC 3339 or YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("category") //nolint:errcheck // flag is defined above
	addReportFlags(cmd)

	return cmd
}

// runAddCmd executes the add command.
func runAddCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd, cfg.Verbose)

	category, err := cmd.Flags().GetString("category")
	if err != nil {
		return err
	}
	freq := model.ChangeFrequencyUnknown
	if s, _ := cmd.Flags().GetString("changefreq"); s != "" {
		if freq, err = model.ParseChangeFrequency(s); err != nil {
			return err
		}
	}
	lastMod, err := cmd.Flags().GetString("lastmod")
	if err != nil {
		return err
	}
	lastModified, err := parseLastMod(lastMod)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(context.Background(), logger)
	defer cancel()

	gen, err := openGenerator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer gen.Close()

	for _, raw := range args {
		added, err := gen.Add(raw, category, freq, lastModified)
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", raw, err)
		}
		if !added {
			logger.Info("URL already stored", "url", raw)
		}
	}

	return flushAndReport(ctx, cmd, cfg, gen)
}
