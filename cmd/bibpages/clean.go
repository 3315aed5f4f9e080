package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/bibpages/internal/site"
)

func init() {
	rootCmd.AddCommand(cleanCmd)
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove generated pages",
	Long: `Remove every generated .qmd page under publications/ and make sure the
publication and asset directories exist. Preview images are kept.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	root, cfg := mustSetup()
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	report, err := site.Clean(root, cfg.AssetsDir, newLogger())
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		outputHuman("%s", formatCleanReport(report))
	} else {
		outputJSON(report)
	}
	return nil
}
