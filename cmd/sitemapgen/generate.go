package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

// errNoList is returned when --list is missing.
var errNoList = errors.New("no list file provided (use --list)")

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate sitemaps from a URL list file",
		Long: `Generate adds every URL of a list file and writes the changed files.

Each line of the list holds tab-separated fields:

  url <TAB> category <TAB> changefreq [<TAB> lastmod]

Blank lines and lines starting with # are ignored. The changefreq field may
be empty. lastmod accepts RFC 3339 or YYYY-MM-DD.

Examples:
  # Generate from a list
  sitemapgen generate --list urls.tsv

  # Drop stored URLs missing from the list and write a Markdown report
  sitemapgen generate --list urls.tsv --prune --markdown -o report.md`,
		Args: cobra.NoArgs,
		RunE: runGenerateCmd,
	}

	cmd.Flags().StringP("list", "l", "", "URL list file (required)")
	cmd.Flags().Bool("prune", false, "Remove stored URLs that are not in the list")
	addReportFlags(cmd)

	return cmd
}

// runGenerateCmd executes the generate command.
func runGenerateCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd, cfg.Verbose)

	listPath, err := cmd.Flags().GetString("list")
	if err != nil {
		return err
	}
	if listPath == "" {
		return errNoList
	}
	prune, err := cmd.Flags().GetBool("prune")
	if err != nil {
		return err
	}

	entries, err := readList(listPath)
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

	added, removed, err := applyList(gen, entries, prune)
	if err != nil {
		return err
	}
	logger.Debug("list applied", "file", listPath, "lines", len(entries), "added", added, "removed", removed)

	return flushAndReport(ctx, cmd, cfg, gen)
}
