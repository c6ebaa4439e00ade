/*
PURPOSE:
  Defines the 'generate' subcommand.
  Runs the full report pipeline from benchmark files to HTML.

REQUIREMENTS:
  User-specified:
  - Build the HTML report from the configured benchmark files.
  - Optional CSV/JSONL, SQLite and PNG side exports.
  - --summary-only / --requests-only partial loads.

  Implementation-discovered:
  - The pipeline must be callable without flag state so the serve
    command can rerun it on file changes.
  - Color fallback decides on the summary table first; the request
    table only counts when no summary rows were loaded.

ARCHITECTURE INTEGRATION:
  - Calls: internal/parse, internal/model, internal/report, internal/output
  - Uses: internal/config

ERROR HANDLING:
  - Returns error if config load fails, no data is found, or any
    output file cannot be written.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Extract -> Enrich -> Export -> Render.

USAGE:
  guidellm-report generate benchmarks.yaml -o report.html

SELF-HEALING INSTRUCTIONS:
  - If the report comes out empty, check the files globs in the config
    and the configured axis levels.

RELATED FILES:
  - internal/cli/root.go
  - internal/cli/serve.go

MAINTENANCE:
  - Update when adding new export formats.
*/

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daryltucker/guidellm-report/internal/config"
	"github.com/daryltucker/guidellm-report/internal/model"
	"github.com/daryltucker/guidellm-report/internal/output"
	"github.com/daryltucker/guidellm-report/internal/parse"
	"github.com/daryltucker/guidellm-report/internal/report"
)

var (
	outputPath   string
	titleFlag    string
	subtitleFlag string
	summaryOnly  bool
	requestsOnly bool
	dataDir      string
	sqlitePath   string
	pngDir       string
)

var generateCmd = &cobra.Command{
	Use:   "generate [config-file]",
	Short: "Generate the HTML benchmark report",
	Long: `Loads every benchmark file referenced by the configuration, builds the
summary and per-request tables, and renders the interactive HTML report.

Optional side exports write the loaded tables as CSV/JSONL files, as a
SQLite database, or as static PNG charts for embedding elsewhere.`,
	Example: `  # Generate with defaults (uses guidellm-report.yaml)
  guidellm-report generate

  # Explicit config file and output path
  guidellm-report generate benchmarks.yaml -o reports/latest.html

  # Skip the per-request charts for very large runs
  guidellm-report generate --summary-only

  # Export the loaded tables alongside the report
  guidellm-report generate --data-dir ./tables --sqlite results.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(resolveConfigPath(args))
		if err != nil {
			return err
		}

		result, err := buildReport(cfg, reportOptions{
			output:       outputPath,
			title:        titleFlag,
			subtitle:     subtitleFlag,
			summaryOnly:  summaryOnly,
			requestsOnly: requestsOnly,
			dataDir:      dataDir,
			sqlitePath:   sqlitePath,
			pngDir:       pngDir,
		})
		if err != nil {
			return err
		}

		output.Logger.Info("report generated",
			"path", outputPath,
			"summary_rows", result.summaryCount,
			"request_rows", result.requestCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&outputPath, "output", "o", "benchmark_analysis_report.html", "Output HTML file")
	generateCmd.Flags().StringVar(&titleFlag, "title", "", "Report title (default \"Benchmark Analysis Report\")")
	generateCmd.Flags().StringVar(&subtitleFlag, "subtitle", "", "Optional subtitle shown under the report title")
	generateCmd.Flags().BoolVar(&summaryOnly, "summary-only", false, "Load only per-run summary data")
	generateCmd.Flags().BoolVar(&requestsOnly, "requests-only", false, "Load only individual request data")
	generateCmd.Flags().StringVar(&dataDir, "data-dir", "", "Also export the loaded tables as CSV and JSONL into this directory")
	generateCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Also export the loaded tables into this SQLite database")
	generateCmd.Flags().StringVar(&pngDir, "png-dir", "", "Also render static PNG charts into this directory")
}

// reportOptions carries the generate flags into the pipeline so the
// serve command can rerun it without touching package flag state.
type reportOptions struct {
	output       string
	title        string
	subtitle     string
	summaryOnly  bool
	requestsOnly bool
	dataDir      string
	sqlitePath   string
	pngDir       string
}

// reportResult summarizes one pipeline run.
type reportResult struct {
	summaryCount      int
	requestCount      int
	concurrencyLevels []float64
	rpsLevels         []float64
}

// buildReport runs the full pipeline for one configuration.
func buildReport(cfg *config.Config, opts reportOptions) (*reportResult, error) {
	if opts.summaryOnly && opts.requestsOnly {
		return nil, fmt.Errorf("--summary-only and --requests-only are mutually exclusive")
	}

	log := output.Logger

	// 1. Extraction
	ex := parse.NewExtractor(log)
	var summary []*model.SummaryRow
	var requests []*model.RequestRow
	if !opts.requestsOnly {
		summary = parse.LoadGroups(cfg.Data, log, ex.SummaryRows)
	}
	if !opts.summaryOnly {
		requests = parse.LoadGroups(cfg.Data, log, ex.RequestRows)
	}

	// 2. Enrichment + filtering
	model.DeriveDatasetID(summary)
	model.DeriveDatasetID(requests)

	axisMode := cfg.AxisMode()
	levels := cfg.Levels(axisMode)
	summary = model.FilterByLevels(summary, axisMode, levels, log)
	requests = model.FilterByLevels(requests, axisMode, levels, log)

	if len(summary) == 0 && len(requests) == 0 {
		return nil, fmt.Errorf("no benchmark data found; check the files patterns in %s", cfg.Path)
	}

	colorCol := cfg.ColorColumn()
	if !columnPresent(summary, requests, colorCol) {
		log.Warn("color column not found in data, falling back to dataset_id", "column", colorCol)
		colorCol = "dataset_id"
	}

	params := report.Params{
		AxisMode:    axisMode,
		ColorColumn: colorCol,
		Categorical: cfg.Options.XAxisCategorical,
		LogScaleY:   cfg.Options.YAxisLogScale,
	}

	// 3. Side exports
	if opts.dataDir != "" {
		if err := exportTables(opts.dataDir, summary, requests); err != nil {
			return nil, err
		}
	}
	if opts.sqlitePath != "" {
		if err := output.WriteSQLite(opts.sqlitePath, summary, requests); err != nil {
			return nil, err
		}
	}
	if opts.pngDir != "" {
		if err := params.WritePNGCharts(opts.pngDir, summary); err != nil {
			return nil, err
		}
	}

	// 4. HTML assembly
	charts := report.BuildCharts(summary, requests, params)
	meta := report.MetadataText(len(summary), len(requests), cfg, commandLine())
	page := report.NewPage(opts.title, opts.subtitle, meta, charts)
	if err := report.WritePage(opts.output, page); err != nil {
		return nil, err
	}

	return &reportResult{
		summaryCount:      len(summary),
		requestCount:      len(requests),
		concurrencyLevels: model.AvailableLevels(summary, "concurrency"),
		rpsLevels:         model.AvailableLevels(summary, "rps"),
	}, nil
}

// columnPresent reports whether any loaded row carries the column. The
// summary table is authoritative; the request table only decides when
// no summary rows were loaded.
func columnPresent(summary []*model.SummaryRow, requests []*model.RequestRow, col string) bool {
	if len(summary) > 0 {
		for _, r := range summary {
			if _, ok := r.Field(col); ok {
				return true
			}
		}
		return false
	}
	for _, r := range requests {
		if _, ok := r.Field(col); ok {
			return true
		}
	}
	return false
}

// exportTables writes both tables as CSV and JSONL under dir. Tables
// that loaded no rows still get their header-only files, so downstream
// scripts can rely on the file set.
func exportTables(dir string, summary []*model.SummaryRow, requests []*model.RequestRow) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}

	if err := output.WriteCSV(filepath.Join(dir, "summary.csv"), model.SummaryColumns, summary); err != nil {
		return err
	}
	if err := output.WriteCSV(filepath.Join(dir, "requests.csv"), model.RequestColumns, requests); err != nil {
		return err
	}
	if err := output.WriteJSONL(filepath.Join(dir, "summary.jsonl"), model.SummaryColumns, summary); err != nil {
		return err
	}
	return output.WriteJSONL(filepath.Join(dir, "requests.jsonl"), model.RequestColumns, requests)
}

// commandLine reproduces the invocation for the report metadata block.
func commandLine() string {
	return strings.Join(os.Args, " ")
}
