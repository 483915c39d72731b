package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// defaultDebounce is how long watch waits for more writes before regenerating.
const defaultDebounce = 500 * time.Millisecond

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate sitemaps whenever a URL list file changes",
		Long: `Watch runs generate once and then again every time the list file is written.

The list format is the one of "sitemapgen generate". Bursts of writes are
coalesced. Stop with Ctrl+C.

Examples:
  sitemapgen watch --list urls.tsv --prune`,
		Args: cobra.NoArgs,
		RunE: runWatchCmd,
	}

	cmd.Flags().StringP("list", "l", "", "URL list file (required)")
	cmd.Flags().Bool("prune", false, "Remove stored URLs that are not in the list")
	cmd.Flags().Duration("debounce", defaultDebounce, "Quiet period before regenerating")
	addReportFlags(cmd)

	return cmd
}

// runWatchCmd executes the watch command.
func runWatchCmd(cmd *cobra.Command, _ []string) error {
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
	debounce, err := cmd.Flags().GetDuration("debounce")
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

	regenerate := func() error {
		entries, err := readList(listPath)
		if err != nil {
			return err
		}
		if _, _, err := applyList(gen, entries, prune); err != nil {
			return err
		}
		return flushAndReport(ctx, cmd, cfg, gen)
	}

	// The first run reports errors; later runs only log them so that a
	// half-saved list does not stop the watcher.
	if err := regenerate(); err != nil {
		return err
	}

	err = watchList(ctx, listPath, debounce, logger, func() {
		if err := regenerate(); err != nil {
			logger.Error("regeneration failed", "file", listPath, "error", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watchList calls onChange after every burst of writes to path until ctx is
// done. The parent directory is watched so that editors replacing the file
// by rename are noticed.
func watchList(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("watching list file", "file", abs, "debounce", debounce)

	return debounceEvents(ctx, abs, w.Events, w.Errors, debounce, logger, onChange)
}

// debounceEvents runs onChange on the calling goroutine once no event for
// path arrived during debounce. Events for other files are ignored.
func debounceEvents(ctx context.Context, path string, events <-chan fsnotify.Event, errs <-chan error,
	debounce time.Duration, logger *slog.Logger, onChange func()) error {
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("list file changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)

		case <-timer.C:
			onChange()
		}
	}
}
