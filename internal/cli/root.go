/*
PURPOSE:
  Defines the root Cobra command for the guidellm-report CLI.
  Handles global flags and command initialization.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config and --verbose.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.
  - Subcommands also take the config path as a positional argument,
    which wins over the flag.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/guidellm-report/main.go
  - Calls: Child commands (generate, levels, serve, init)
  - Modifies: the package logger level via --verbose.

ERROR HANDLING:
  - Returns error to main.go for exit code handling.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands, Root is usually empty or helps.

USAGE:
  Called by main.go.

SELF-HEALING INSTRUCTIONS:
  - If adding new global flags, add them to init().

RELATED FILES:
  - cmd/guidellm-report/main.go

MAINTENANCE:
  - Update when adding global configuration options.
*/

package cli

import (
	"github.com/spf13/cobra"

	"github.com/daryltucker/guidellm-report/internal/output"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile string
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "guidellm-report",
		Short: "Benchmark analysis and visualization tool for GuideLLM",
		Long: `Converts GuideLLM benchmark result files into an HTML report with
throughput, latency, token-length and scheduling charts. Use 'generate --help'
for report options.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetVerbose(verbose)
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./guidellm-report.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// resolveConfigPath applies the precedence between the positional
// argument and the --config flag.
func resolveConfigPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfgFile
}
