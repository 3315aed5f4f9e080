package pdf

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// DefaultDPI is the render resolution used when none is configured.
const DefaultDPI = 100

// Renderer rasterizes PDF pages with pdftoppm (poppler-utils).
type Renderer struct {
	binary string
	dpi    int
}

// NewRenderer creates a renderer. An empty binary means "pdftoppm" on PATH.
func NewRenderer(binary string, dpi int) *Renderer {
	if binary == "" {
		binary = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Renderer{binary: binary, dpi: dpi}
}

// FirstPage validates data and renders its first page.
func (r *Renderer) FirstPage(ctx context.Context, data []byte) (image.Image, error) {
	if _, err := PageCount(data); err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "bibpages-render-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	input := filepath.Join(tmpDir, "source.pdf")
	if err := os.WriteFile(input, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing temp PDF: %w", err)
	}

	// -singlefile drops the page-number suffix: output is <prefix>.png
	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, r.binary,
		"-png",
		"-f", "1",
		"-l", "1",
		"-r", strconv.Itoa(r.dpi),
		"-singlefile",
		input,
		prefix,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	f, err := os.Open(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding rendered page: %w", err)
	}
	return img, nil
}
