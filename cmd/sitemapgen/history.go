package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/sitemapgen/internal/config"
	"github.com/nao1215/sitemapgen/internal/database"
	"github.com/nao1215/sitemapgen/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs shown by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded flush runs",
		Long: `History lists the flush runs recorded in the journal, newest first.

Use --verbose to include the files written and the pings of each run, or
--run to show a single run.

Examples:
  sitemapgen history
  sitemapgen history --limit 5 --markdown
  sitemapgen history --run 6f1c2a9e-...
  sitemapgen history --pings`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of runs to show")
	cmd.Flags().String("run", "", "Show only the run with this ID")
	cmd.Flags().Bool("pings", false, "List pings sent by the ping command instead of runs")
	addReportFlags(cmd)

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return config.ErrConflictingReportFormats
	}
	setupLogger(cmd, cfg.Verbose)

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetString("run")
	if err != nil {
		return err
	}
	showPings, err := cmd.Flags().GetBool("pings")
	if err != nil {
		return err
	}

	if _, err := os.Stat(filepath.Join(cfg.JournalDir, database.FileName)); os.IsNotExist(err) {
		fmt.Fprintf(cmd.OutOrStdout(), "No journal found in %s.\n", cfg.JournalDir)
		return nil
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	journal, err := database.Open(cfg.JournalDir, opts)
	if err != nil {
		return err
	}
	defer journal.Close()

	ctx := context.Background()

	if showPings {
		pings, err := journal.ListPings(ctx, limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(pings) == 0 {
			fmt.Fprintln(out, "No pings recorded.")
		}
		for _, p := range pings {
			fmt.Fprintf(out, "%s  %-10s %3d  %s %s\n",
				p.Timestamp.Local().Format("2006-01-02 15:04:05"), p.Engine, p.StatusCode, p.URL, p.Error)
		}
		return nil
	}

	var runs []database.FlushRun
	if runID != "" {
		run, err := journal.GetFlush(ctx, runID)
		if err != nil {
			return err
		}
		runs = []database.FlushRun{*run}
		cfg.Verbose = true
	} else {
		if runs, err = journal.ListFlushes(ctx, limit); err != nil {
			return err
		}
	}

	return outputReport(cmd, cfg, func(w report.Writer) error {
		_, err := w.WriteHistory(runs)
		return err
	})
}
