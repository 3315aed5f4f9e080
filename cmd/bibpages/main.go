// Package main provides the bibpages CLI entry point.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/bibpages/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool

	configFlag string
	rootFlag   string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bibpages",
	Short: "Generate Quarto publication pages from a BibTeX bibliography",
	Long: `bibpages turns a BibTeX/BibLaTeX bibliography into one Quarto page per
publication, sorted into article, conference, forthcoming and other
directories, with an optional preview image for each.

Settings are read from bibpages.yml in the site root. A .env file in the
working directory may set BIBPAGES_ROOT, BIBPAGES_CONFIG and
BIBPAGES_THUMBNAILS. All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load .env file if present (ignore error if not found)
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default: <root>/bibpages.yml)")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Site root (default: $BIBPAGES_ROOT or the current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every entry")
	rootCmd.Version = Version
}

// getSiteRoot resolves the site root from --root, BIBPAGES_ROOT or the
// current directory, in that order.
func getSiteRoot() (string, error) {
	root := rootFlag
	if root == "" {
		root = os.Getenv(config.EnvRoot)
	}
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		root = cwd
	}

	abs, err := filepath.Abs(config.ExpandPath(root))
	if err != nil {
		return "", fmt.Errorf("resolving site root: %w", err)
	}
	return abs, nil
}

// getConfigPath returns the config file to load and whether it was named
// explicitly. Explicit files must exist; the default one is optional.
func getConfigPath(root string) (string, bool) {
	if configFlag != "" {
		return config.ExpandPath(configFlag), true
	}
	if path := os.Getenv(config.EnvConfig); path != "" {
		return config.ExpandPath(path), true
	}
	return config.ConfigPath(root), false
}

// loadConfig reads the configuration for root and applies environment
// overrides. The result is not yet validated.
func loadConfig(root string) (*config.Config, error) {
	path, explicit := getConfigPath(root)

	var cfg *config.Config
	var err error
	if explicit {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrDefault(path)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger returns the stderr logger, at debug level with --verbose.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// mustSetup resolves the site root and configuration, exiting on failure.
func mustSetup() (string, *config.Config) {
	root, err := getSiteRoot()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	cfg, err := loadConfig(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return root, cfg
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
