package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matsen/bibpages/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration a run would use: bibpages.yml (or --config /
BIBPAGES_CONFIG) over the built-in defaults, with environment overrides
applied.

The --human form is valid bibpages.yml and can seed a new site:
  bibpages config --human > bibpages.yml`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

// ConfigResponse is the response for the config command.
type ConfigResponse struct {
	Root       string         `json:"root"`
	ConfigFile string         `json:"config_file"`
	Found      bool           `json:"found"`
	Config     *config.Config `json:"config"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	root, cfg := mustSetup()
	path, _ := getConfigPath(root)

	if humanOutput {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			exitWithError(ExitError, "encoding config: %v", err)
		}
		fmt.Print(string(data))
		return nil
	}

	outputJSON(ConfigResponse{
		Root:       root,
		ConfigFile: path,
		Found:      fileExists(path),
		Config:     cfg,
	})
	return nil
}
