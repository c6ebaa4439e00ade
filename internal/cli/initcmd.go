package cli

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/daryltucker/guidellm-report/internal/assets"
	"github.com/daryltucker/guidellm-report/internal/output"
)

const starterConfig = "guidellm-report.yaml"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter guidellm-report.yaml to the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(starterConfig); err == nil {
			return fmt.Errorf("%s already exists, refusing to overwrite", starterConfig)
		}

		content, err := fs.ReadFile(assets.Templates, "templates/guidellm-report.yaml")
		if err != nil {
			return fmt.Errorf("failed to read embedded template: %w", err)
		}

		if err := os.WriteFile(starterConfig, content, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", starterConfig, err)
		}

		output.Logger.Info("Wrote starter config", "path", starterConfig)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
