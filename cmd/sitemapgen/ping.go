package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/sitemapgen/internal/model"
	"github.com/nao1215/sitemapgen/internal/ping"
	"github.com/spf13/cobra"
)

// NewPingCmd creates the ping command.
func NewPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping [engine...]",
		Short: "Notify search engines of the sitemap index",
		Long: `Ping sends the public URL of the sitemap index to search engines.

Without arguments the engines of ping.auto in the config file are used.
Built-in engines: google, bing, yandex. Other names need an endpoint in
ping.endpoints.

Examples:
  sitemapgen ping
  sitemapgen ping google bing`,
		RunE: runPingCmd,
	}
}

// runPingCmd executes the ping command.
func runPingCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd, cfg.Verbose)

	engines := make([]model.SearchEngine, 0, len(args))
	for _, arg := range args {
		e, err := model.ParseSearchEngine(arg)
		if err != nil {
			return err
		}
		if _, err := cfg.PingEndpoint(e); err != nil {
			return err
		}
		engines = append(engines, e)
	}
	if len(engines) == 0 && len(cfg.AutoPing) == 0 {
		return fmt.Errorf("%w: pass engine names or set ping.auto (built-in: %s)",
			ping.ErrNoEngines, builtinEngineNames())
	}

	ctx, cancel := signalContext(context.Background(), logger)
	defer cancel()

	gen, err := openGenerator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer gen.Close()

	results, err := gen.Ping(ctx, engines)
	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.OK() {
			fmt.Fprintf(out, "%-10s ok     %d  %s\n", r.Engine, r.StatusCode, r.Duration.Round(time.Millisecond))
			continue
		}
		fmt.Fprintf(out, "%-10s FAILED %v\n", r.Engine, r.Err)
	}
	if err != nil {
		return err
	}
	return ping.Failed(results)
}

// builtinEngineNames lists the built-in engines for help and error text.
func builtinEngineNames() string {
	engines := model.BuiltinSearchEngines()
	names := make([]string, len(engines))
	for i, e := range engines {
		names[i] = e.String()
	}
	return strings.Join(names, ", ")
}
