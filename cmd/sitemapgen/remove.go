package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewRemoveCmd creates the remove command.
func NewRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove URL...",
		Aliases: []string{"rm"},
		Short:   "Remove URLs from the sitemaps and flush",
		Long: `Remove deletes one or more URLs and rewrites the files that held them.

Relative URLs are resolved against baseUrl. Unknown URLs are ignored.

Examples:
  sitemapgen remove /blog/old-post https://example.com/p/42`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRemoveCmd,
	}
	addReportFlags(cmd)
	return cmd
}

// runRemoveCmd executes the remove command.
func runRemoveCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd, cfg.Verbose)

	ctx, cancel := signalContext(context.Background(), logger)
	defer cancel()

	gen, err := openGenerator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer gen.Close()

	for _, raw := range args {
		removed, err := gen.Remove(raw)
		if err != nil {
			return fmt.Errorf("failed to remove %s: %w", raw, err)
		}
		if !removed {
			logger.Info("URL not stored", "url", raw)
		}
	}

	return flushAndReport(ctx, cmd, cfg, gen)
}
