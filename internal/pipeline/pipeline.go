// Package pipeline runs a full page generation: clean the output tree,
// then resolve, map and write every bibliography entry in order.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/matsen/bibpages/internal/author"
	"github.com/matsen/bibpages/internal/bibtex"
	"github.com/matsen/bibpages/internal/config"
	"github.com/matsen/bibpages/internal/page"
	"github.com/matsen/bibpages/internal/pdf"
	"github.com/matsen/bibpages/internal/site"
	"github.com/matsen/bibpages/internal/thumbnail"
)

// PageResult describes one written page.
type PageResult struct {
	Key   string         `json:"key"`
	Path  string         `json:"path"` // Relative to the site root
	Image thumbnail.Kind `json:"image"`
}

// Summary reports what a run did.
type Summary struct {
	Entries       int               `json:"entries"`
	Pages         map[string]int    `json:"pages"` // Pages written per publication directory
	Clean         *site.CleanReport `json:"clean,omitempty"`
	Images        thumbnail.Stats   `json:"images"`
	DuplicateKeys []string          `json:"duplicate_keys,omitempty"`
	Results       []PageResult      `json:"results"`
}

// Pipeline holds everything needed to generate a site's pages.
type Pipeline struct {
	root     string
	cfg      *config.Config
	resolver *thumbnail.Resolver
	mapper   *page.Mapper
	logger   *slog.Logger
}

// New creates a pipeline for the site at root.
func New(root string, cfg *config.Config, resolver *thumbnail.Resolver, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	roster := author.Roster{Self: cfg.SelfNames, Group: cfg.GroupMembers}
	return &Pipeline{
		root:     root,
		cfg:      cfg,
		resolver: resolver,
		mapper:   page.NewMapper(roster),
		logger:   logger,
	}
}

// NewResolver builds the image resolver described by cfg. The network
// fetcher and rasterizer are only created when synthesis is enabled.
func NewResolver(root string, cfg *config.Config, logger *slog.Logger) *thumbnail.Resolver {
	t := cfg.Thumbnails
	opts := thumbnail.Options{
		Root:          root,
		AssetsDir:     cfg.AssetsDir,
		Synthesize:    t.Enabled,
		Width:         t.Width,
		EligibleTypes: t.EligibleTypes,
	}
	if !t.Enabled {
		return thumbnail.NewResolver(opts, nil, nil, logger)
	}

	fetcher := thumbnail.NewHTTPFetcher(
		thumbnail.WithUserAgent(t.UserAgent),
		thumbnail.WithRateLimit(t.RateLimit),
		thumbnail.WithRetries(t.Retries),
		thumbnail.WithMaxBytes(t.MaxBytes),
		thumbnail.WithTimeout(t.Timeout),
		thumbnail.WithLogger(logger),
	)
	return thumbnail.NewResolver(opts, fetcher, pdf.NewRenderer(t.Pdftoppm, t.DPI), logger)
}

// Run generates one page per entry. With clean set, previously generated
// pages are removed first. Image problems never stop the run; a page that
// cannot be written does.
func (p *Pipeline) Run(ctx context.Context, entries []bibtex.Entry, clean bool) (*Summary, error) {
	summary := &Summary{
		Entries: len(entries),
		Pages:   make(map[string]int),
		Results: make([]PageResult, 0, len(entries)),
	}

	if clean {
		report, err := site.Clean(p.root, p.cfg.AssetsDir, p.logger)
		if err != nil {
			return nil, fmt.Errorf("cleaning output: %w", err)
		}
		summary.Clean = report
	}

	opts := page.RenderOptions{
		Bibliography: p.siteRelative(p.cfg.BibPath(p.root)),
		CSL:          p.cfg.CSLFile,
		Template:     p.cfg.Template,
	}

	run := thumbnail.NewRun()
	written := make(map[string]string)

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome := p.resolver.Resolve(ctx, e, run)
		md := p.mapper.Map(e, outcome.Path)
		path := site.PagePath(p.root, e.Type, e.Key)

		if prev, ok := written[path]; ok {
			p.logger.Warn("citation keys map to the same page, later entry wins",
				"key", e.Key, "previous", prev, "path", path)
			summary.DuplicateKeys = append(summary.DuplicateKeys, e.Key)
		}
		written[path] = e.Key

		if err := page.WriteFile(path, md, opts); err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.Key, err)
		}

		p.logger.Debug("wrote page", "key", e.Key, "path", path, "image", outcome.Kind)
		summary.Pages[site.TypeDir(e.Type)]++
		summary.Results = append(summary.Results, PageResult{
			Key:   e.Key,
			Path:  p.siteRelative(path),
			Image: outcome.Kind,
		})
	}

	summary.Images = run.Stats
	return summary, nil
}

// siteRelative expresses path relative to the site root.
func (p *Pipeline) siteRelative(path string) string {
	rel, err := filepath.Rel(p.root, path)
	if err != nil {
		return path
	}
	return rel
}
