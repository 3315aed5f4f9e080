package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/bibpages/internal/bibtex"
	"github.com/matsen/bibpages/internal/pipeline"
)

var (
	generateThumbnails bool
	generateNoClean    bool
)

func init() {
	generateCmd.Flags().BoolVar(&generateThumbnails, "thumbnails", false, "Generate missing preview images from linked PDFs")
	generateCmd.Flags().BoolVar(&generateNoClean, "no-clean", false, "Keep previously generated pages")
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate [bib-file]",
	Short: "Generate one page per bibliography entry",
	Long: `Generate one Quarto page per bibliography entry.

The run removes previously generated pages, then for every entry resolves a
preview image, maps the entry to page metadata and writes
publications/<kind>/<key>.qmd.

Images are looked up in assets_dir as <key>.png, .jpg or .jpeg. With
--thumbnails (or thumbnails.enabled in bibpages.yml) a missing image is
rendered from the first page of the entry's preprint, PDF url or DOI.
This needs pdftoppm from poppler-utils.

Examples:
  bibpages generate
  bibpages generate refs.bib --thumbnails --human`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	root, cfg := mustSetup()

	if cmd.Flags().Changed("thumbnails") {
		cfg.Thumbnails.Enabled = generateThumbnails
	}
	if len(args) == 1 {
		bib, err := filepath.Abs(args[0])
		if err != nil {
			exitWithError(ExitError, "resolving %s: %v", args[0], err)
		}
		cfg.BibFile = bib
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	bibPath := cfg.BibPath(root)
	entries, err := bibtex.ParseFile(bibPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			exitWithError(ExitConfigError, "bibliography not found: %s", bibPath)
		}
		exitWithError(ExitDataError, "%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := newLogger()
	p := pipeline.New(root, cfg, pipeline.NewResolver(root, cfg, logger), logger)

	summary, err := p.Run(ctx, entries, !generateNoClean)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		outputHuman("%s", formatSummary(summary))
	} else {
		outputJSON(summary)
	}
	return nil
}
