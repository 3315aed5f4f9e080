package thumbnail

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matsen/bibpages/internal/bibtex"
	"github.com/matsen/bibpages/internal/pdf"
	"github.com/matsen/bibpages/internal/textfmt"
)

// ImageExtensions are probed, in order, for an existing preview image.
var ImageExtensions = []string{".png", ".jpg", ".jpeg"}

// Fetcher downloads a PDF.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Rasterizer renders the first page of a PDF.
type Rasterizer interface {
	FirstPage(ctx context.Context, data []byte) (image.Image, error)
}

// Options configures a Resolver.
type Options struct {
	Root          string   // Site root
	AssetsDir     string   // Image directory, relative to Root
	Synthesize    bool     // Generate thumbnails from linked PDFs
	Width         int      // Thumbnail width in pixels
	EligibleTypes []string // Entry types that may get a generated thumbnail
}

// Resolver picks the preview image of an entry.
type Resolver struct {
	opts    Options
	fetcher Fetcher
	raster  Rasterizer
	logger  *slog.Logger
}

// NewResolver creates a resolver. fetcher and raster may be nil when
// synthesis is disabled.
func NewResolver(opts Options, fetcher Fetcher, raster Rasterizer, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{opts: opts, fetcher: fetcher, raster: raster, logger: logger}
}

// Resolve returns the image outcome for e and records it in run.Stats.
// Failed sources are added to run.Failed and never retried in the same run.
func (r *Resolver) Resolve(ctx context.Context, e bibtex.Entry, run *Run) Outcome {
	out := r.resolve(ctx, e, run)
	run.Stats.Record(out.Kind)
	return out
}

func (r *Resolver) resolve(ctx context.Context, e bibtex.Entry, run *Run) Outcome {
	name := textfmt.SanitizeKey(e.Key)

	if rel, ok := r.existing(name); ok {
		return Outcome{Kind: ExistingImage, Path: rel}
	}

	if !r.opts.Synthesize || r.fetcher == nil || r.raster == nil {
		return Outcome{Kind: NoSource}
	}
	if !slices.Contains(r.opts.EligibleTypes, e.Type) {
		return Outcome{Kind: SkippedByType}
	}

	candidates := Candidates(e)
	if len(candidates) == 0 {
		return Outcome{Kind: NoSource}
	}

	rel := filepath.Join(r.opts.AssetsDir, name+".png")
	for _, src := range candidates {
		if run.Failed.Contains(src) {
			r.logger.Debug("skipping failed source", "key", e.Key, "url", src)
			continue
		}

		if err := r.generate(ctx, src, filepath.Join(r.opts.Root, rel)); err != nil {
			run.Failed.Add(src)
			r.logger.Warn("thumbnail source failed", "key", e.Key, "url", src, "error", err)
			continue
		}

		r.logger.Info("generated thumbnail", "key", e.Key, "url", src, "path", rel)
		return Outcome{Kind: GeneratedThumbnail, Path: rel}
	}

	return Outcome{Kind: GenerationFailed}
}

// existing returns the first preview image already on disk.
func (r *Resolver) existing(name string) (string, bool) {
	for _, ext := range ImageExtensions {
		rel := filepath.Join(r.opts.AssetsDir, name+ext)
		info, err := os.Stat(filepath.Join(r.opts.Root, rel))
		if err == nil && !info.IsDir() {
			return rel, true
		}
	}
	return "", false
}

func (r *Resolver) generate(ctx context.Context, src, dest string) error {
	data, err := r.fetcher.Fetch(ctx, src)
	if err != nil {
		return fmt.Errorf("fetching: %w", err)
	}

	img, err := r.raster.FirstPage(ctx, data)
	if err != nil {
		return fmt.Errorf("rendering: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("creating assets directory: %w", err)
	}
	if err := pdf.WritePNG(dest, pdf.Scale(img, r.opts.Width)); err != nil {
		return fmt.Errorf("writing thumbnail: %w", err)
	}
	return nil
}

// Candidates lists the PDF sources of an entry in priority order: preprint,
// url when it points at a PDF, then the DOI resolver. Duplicates are dropped.
func Candidates(e bibtex.Entry) []string {
	var out []string
	add := func(u string) {
		if u != "" && !slices.Contains(out, u) {
			out = append(out, u)
		}
	}

	add(e.Get("preprint"))
	if u := e.Get("url"); LooksLikePDF(u) {
		add(u)
	}
	if doi := e.Get("doi"); doi != "" {
		add("https://doi.org/" + doi)
	}

	return out
}

// LooksLikePDF reports whether a URL's path ends in .pdf or has a /pdf/
// segment, as arXiv and most publisher download links do.
func LooksLikePDF(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	p = strings.ToLower(p)
	return strings.HasSuffix(p, ".pdf") || strings.Contains(p, "/pdf/")
}
