/*
PURPOSE:
  Defines the 'levels' subcommand.
  Helps debug axis configuration before generating a report.

REQUIREMENTS:
  User-specified:
  - List the concurrency and request-rate levels present in the data.

  Implementation-discovered:
  - Useful validation step before narrowing concurrency_levels or
    rps_levels in the config.

ARCHITECTURE INTEGRATION:
  - Calls: internal/parse.LoadGroups, internal/model.AvailableLevels

ERROR HANDLING:
  - Returns error if config load fails or no data is found.

IMPLEMENTATION RULES:
  - Simple output to stdout.

USAGE:
  guidellm-report levels benchmarks.yaml

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/model/enrich.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/daryltucker/guidellm-report/internal/config"
	"github.com/daryltucker/guidellm-report/internal/model"
	"github.com/daryltucker/guidellm-report/internal/output"
	"github.com/daryltucker/guidellm-report/internal/parse"
)

var levelsCmd = &cobra.Command{
	Use:   "levels [config-file]",
	Short: "List the axis levels present in the benchmark data",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(resolveConfigPath(args))
		if err != nil {
			return err
		}

		ex := parse.NewExtractor(output.Logger)
		summary := parse.LoadGroups(cfg.Data, output.Logger, ex.SummaryRows)
		if len(summary) == 0 {
			return fmt.Errorf("no benchmark data found; check the files patterns in %s", cfg.Path)
		}

		fmt.Printf("Axis mode: %s\n", cfg.AxisMode())
		printLevels("Concurrency levels", model.AvailableLevels(summary, "concurrency"))
		printLevels("Request-rate levels", model.AvailableLevels(summary, "rps"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(levelsCmd)
}

func printLevels(label string, levels []float64) {
	if len(levels) == 0 {
		fmt.Printf("%s: none\n", label)
		return
	}
	fmt.Printf("%s:\n", label)
	for _, v := range levels {
		fmt.Printf("- %s\n", strconv.FormatFloat(v, 'g', -1, 64))
	}
}
