/*
PURPOSE:
  Defines the 'serve' subcommand.
  Generates the report, serves it over HTTP and regenerates it when
  the benchmark files change.

REQUIREMENTS:
  User-specified:
  - Serve the report on a local address.
  - Watch the config file and the benchmark directories for changes.

  Implementation-discovered:
  - The watcher needs directories, not glob patterns, so the watch set
    is derived from the current glob matches.
  - The config file itself is watched so edits to levels or colors
    also trigger a rebuild.

ARCHITECTURE INTEGRATION:
  - Calls: buildReport (generate.go), internal/serve
  - Uses: internal/config

ERROR HANDLING:
  - Fails fast when the initial report cannot be built. Later rebuild
    failures only log and keep the previous report on disk.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Initial Report -> Serve + Watch.

USAGE:
  guidellm-report serve benchmarks.yaml --addr 127.0.0.1:8080

SELF-HEALING INSTRUCTIONS:
  - If rebuilds never trigger, check that the files globs match at
    least one existing directory at startup.

RELATED FILES:
  - internal/cli/generate.go
  - internal/serve/serve.go

MAINTENANCE:
  - Update when adding new serve endpoints.
*/

package cli

import (
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daryltucker/guidellm-report/internal/config"
	"github.com/daryltucker/guidellm-report/internal/output"
	"github.com/daryltucker/guidellm-report/internal/serve"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve [config-file]",
	Short: "Serve the report over HTTP with live regeneration",
	Long: `Builds the report once, then serves it on the given address. A file
watcher on the config file and the benchmark directories rebuilds the
report after changes settle, so a browser refresh shows fresh charts
while a benchmark suite is still running.`,
	Example: `  # Serve on the default address
  guidellm-report serve

  # Explicit config file and port
  guidellm-report serve benchmarks.yaml --addr 0.0.0.0:9090`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(resolveConfigPath(args))
		if err != nil {
			return err
		}

		opts := reportOptions{
			output:       outputPath,
			title:        titleFlag,
			subtitle:     subtitleFlag,
			summaryOnly:  summaryOnly,
			requestsOnly: requestsOnly,
		}

		// The first build must succeed so there is something to serve.
		result, err := buildReport(cfg, opts)
		if err != nil {
			return err
		}

		srv := serve.New(serve.Options{
			Addr:       serveAddr,
			ReportPath: opts.output,
			WatchPaths: watchPaths(cfg),
			InitialLevels: serve.Levels{
				Concurrency: result.concurrencyLevels,
				RPS:         result.rpsLevels,
			},
			Log: output.Logger,
			Regenerate: func() (serve.Levels, error) {
				// Reload the config so edits to levels or colors
				// take effect on the next rebuild.
				fresh, err := config.Load(cfg.Path)
				if err != nil {
					return serve.Levels{}, err
				}
				result, err := buildReport(fresh, opts)
				if err != nil {
					return serve.Levels{}, err
				}
				return serve.Levels{
					Concurrency: result.concurrencyLevels,
					RPS:         result.rpsLevels,
				}, nil
			},
		})

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sig
			output.Logger.Info("shutting down")
			if err := srv.Shutdown(); err != nil {
				output.Logger.Error("shutdown failed", "error", err)
			}
		}()

		return srv.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "Listen address")
	serveCmd.Flags().StringVarP(&outputPath, "output", "o", "benchmark_analysis_report.html", "Output HTML file")
	serveCmd.Flags().StringVar(&titleFlag, "title", "", "Report title (default \"Benchmark Analysis Report\")")
	serveCmd.Flags().StringVar(&subtitleFlag, "subtitle", "", "Optional subtitle shown under the report title")
	serveCmd.Flags().BoolVar(&summaryOnly, "summary-only", false, "Load only per-run summary data")
	serveCmd.Flags().BoolVar(&requestsOnly, "requests-only", false, "Load only individual request data")
}

// watchPaths derives the watch set: the config file plus the directory
// of every file the globs currently match. Directories are deduped so
// a directory full of result files is registered once.
func watchPaths(cfg *config.Config) []string {
	paths := []string{cfg.Path}
	for _, group := range cfg.Data {
		for _, pattern := range group.Files {
			matches, err := filepath.Glob(pattern)
			if err != nil {
				continue
			}
			for _, m := range matches {
				dir := filepath.Dir(m)
				if !slices.Contains(paths, dir) {
					paths = append(paths, dir)
				}
			}
		}
	}
	return paths
}
