package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nao1215/sitemapgen/internal/crawler"
	"github.com/nao1215/sitemapgen/internal/model"
	"github.com/spf13/cobra"
)

// defaultCrawlTimeout is the timeout of one page request.
const defaultCrawlTimeout = 30 * time.Second

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [start-url]",
		Short: "Discover the pages of the site and add them to the sitemaps",
		Long: `Crawl follows links from a start page (baseUrl by default) and adds every
indexable page of the same host under one category.

Pages answering non-2xx, marked noindex or declaring another canonical URL
are skipped. The Last-Modified header becomes the page's lastmod.

Path filters use doublestar patterns; --ignore wins over --follow.

Examples:
  # Crawl the whole site into the "pages" category
  sitemapgen crawl --category pages

  # Crawl only the blog, two levels deep, and drop vanished posts
  sitemapgen crawl https://example.com/blog/ --category blog \
    --follow "/blog/**" --ignore "/blog/drafts/**" --depth 2 --prune`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawlCmd,
	}

	cmd.Flags().String("category", "", "Category of the discovered pages (required)")
	cmd.Flags().String("changefreq", "",
		"Change frequency: always, hourly, daily, weekly, monthly, yearly or never")
	cmd.Flags().IntP("depth", "d", crawler.DefaultMaxDepth, "Maximum link depth from the start page")
	cmd.Flags().IntP("max-pages", "p", crawler.DefaultMaxPages, "Maximum number of pages to fetch")
	cmd.Flags().Duration("delay", crawler.DefaultDelay, "Delay between requests")
	cmd.Flags().DurationP("timeout", "t", defaultCrawlTimeout, "Timeout for each request")
	cmd.Flags().StringSlice("ignore", nil, "Path patterns never crawled (repeatable)")
	cmd.Flags().StringSlice("follow", nil, "Only crawl paths matching these patterns (repeatable)")
	cmd.Flags().Bool("prune", false, "Remove stored URLs of the category that were not found")
	_ = cmd.MarkFlagRequired("category") //nolint:errcheck // flag is defined above
	addReportFlags(cmd)

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
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
	changefreq, err := cmd.Flags().GetString("changefreq")
	if err != nil {
		return err
	}
	if changefreq != "" {
		if freq, err = model.ParseChangeFrequency(changefreq); err != nil {
			return err
		}
	}
	depth, err := cmd.Flags().GetInt("depth")
	if err != nil {
		return err
	}
	maxPages, err := cmd.Flags().GetInt("max-pages")
	if err != nil {
		return err
	}
	delay, err := cmd.Flags().GetDuration("delay")
	if err != nil {
		return err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	ignore, err := cmd.Flags().GetStringSlice("ignore")
	if err != nil {
		return err
	}
	follow, err := cmd.Flags().GetStringSlice("follow")
	if err != nil {
		return err
	}
	prune, err := cmd.Flags().GetBool("prune")
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

	start := cfg.BaseURL
	if len(args) == 1 {
		if start, err = gen.ResolveURL(args[0]); err != nil {
			return err
		}
	}

	spider := crawler.NewSpider(&http.Client{Timeout: timeout},
		crawler.WithMaxDepth(depth),
		crawler.WithMaxPages(maxPages),
		crawler.WithDelay(delay),
		crawler.WithSpiderUserAgent("sitemapgen/"+getVersion()),
		crawler.WithIgnorePatterns(ignore),
		crawler.WithFollowPatterns(follow),
		crawler.WithSpiderLogger(logger),
	)

	logger.Info("crawling", "start", start, "depth", depth, "maxPages", maxPages)
	pages, err := spider.Crawl(ctx, start)
	if err != nil {
		// Keep what was found when interrupted.
		if !errors.Is(err, context.Canceled) || len(pages) == 0 {
			return fmt.Errorf("crawl failed: %w", err)
		}
		logger.Warn("crawl interrupted, flushing pages found so far", "pages", len(pages))
		ctx = context.WithoutCancel(ctx)
	}

	entries := make([]listEntry, 0, len(pages))
	for _, p := range pages {
		entries = append(entries, listEntry{
			URL:             p.URL,
			Category:        category,
			ChangeFrequency: freq,
			LastModified:    p.LastModified,
		})
	}
	added, err := addEntries(gen, entries)
	if err != nil {
		return err
	}

	removed := 0
	if prune {
		if removed, err = pruneCategory(gen, category, entries); err != nil {
			return err
		}
	}

	stats := spider.Stats()
	logger.Info("crawl finished",
		"fetched", stats.PagesFetched, "indexable", len(pages), "added", added, "removed", removed)

	return flushAndReport(ctx, cmd, cfg, gen)
}
