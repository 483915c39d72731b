package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/sitemapgen/internal/config"
	"github.com/nao1215/sitemapgen/internal/generator"
	applog "github.com/nao1215/sitemapgen/internal/log"
	"github.com/nao1215/sitemapgen/internal/report"
	"github.com/spf13/cobra"
)

// lastModLayouts are the accepted formats of --lastmod and list file dates.
var lastModLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	time.DateOnly,
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// addReportFlags registers the report format flags shared by the commands
// that print a report.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// buildConfig loads the configuration with loadConfig and validates it.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// loadConfig loads the configuration file and applies the global and
// report flags on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, _, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("base-url") {
		if cfg.BaseURL, err = cmd.Flags().GetString("base-url"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("output-dir") {
		if cfg.OutputDir, err = cmd.Flags().GetString("output-dir"); err != nil {
			return nil, err
		}
	}

	cfg.Verbose = getVerboseFlag(cmd)

	if cmd.Flags().Lookup("json") != nil {
		if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
			return nil, err
		}
		if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
			return nil, err
		}
		if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// setupLogger creates a structured logger that masks secrets.
func setupLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	logger := applog.NewRedactingLogger(cmd.ErrOrStderr(), verbose)
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// openGenerator creates the generator for cfg and logs files that could
// not be loaded.
func openGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*generator.Generator, error) {
	gen, err := generator.New(ctx, *cfg, generator.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	for _, w := range gen.LoadWarnings() {
		logger.Warn("skipped sitemap file", "error", w)
	}
	return gen, nil
}

// newReportWriter returns the writer for the report format selected in cfg.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// outputReport writes a report to cfg.ReportFile, or to stdout when no file
// is given.
func outputReport(cmd *cobra.Command, cfg *config.Config, write func(report.Writer) error) error {
	output := cmd.OutOrStdout()
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports list site URLs and journal paths; keep them owner-readable.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}
	return write(newReportWriter(cfg, output))
}

// flushAndReport flushes gen, prints the report and returns an error when
// any file, the index or a ping failed.
func flushAndReport(ctx context.Context, cmd *cobra.Command, cfg *config.Config, gen *generator.Generator) error {
	res, flushErr := gen.Flush(ctx)
	if res != nil && res.Flush != nil {
		if err := outputReport(cmd, cfg, func(w report.Writer) error {
			_, err := w.WriteFlush(res)
			return err
		}); err != nil {
			return err
		}
	}
	if flushErr != nil {
		return flushErr
	}
	return res.Flush.Err()
}

// parseLastMod parses a modification date in one of lastModLayouts.
// An empty string is the zero time.
func parseLastMod(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range lastModLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use RFC 3339 or YYYY-MM-DD)", s)
}
