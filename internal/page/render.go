package page

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matsen/bibpages/internal/author"
)

// RenderOptions holds the site-wide values every page refers to.
type RenderOptions struct {
	Bibliography string // Bibliography file, relative to the site root
	CSL          string // Citation style, relative to the site root
	Template     string // Quarto about-page template
}

// Render writes a complete page: YAML front matter, the abstract and the
// original BibTeX entry.
func Render(w io.Writer, md Metadata, opts RenderOptions) error {
	var b strings.Builder

	b.WriteString("---\n")
	b.WriteString("title: " + doubleQuoted(md.Title) + "\n")

	b.WriteString("author:\n")
	for _, a := range md.Authors {
		b.WriteString("  - " + authorScalar(a) + "\n")
	}

	if md.Date != "" {
		b.WriteString("date: " + plainScalar(md.Date) + "\n")
	}
	b.WriteString("details: " + doubleQuoted(md.Details) + "\n")
	if md.Year != 0 {
		b.WriteString(fmt.Sprintf("year: %d\n", md.Year))
	}

	if md.Volume != "" {
		b.WriteString("volume: " + doubleQuoted(md.Volume) + "\n")
	}
	if md.Issue != "" {
		b.WriteString("issue: " + doubleQuoted(md.Issue) + "\n")
	}
	if md.Pages != "" {
		b.WriteString("pages: " + doubleQuoted(md.Pages) + "\n")
	}

	b.WriteString("bibliography: " + plainScalar(pageRelative(opts.Bibliography)) + "\n")
	b.WriteString("csl: " + plainScalar(pageRelative(opts.CSL)) + "\n")
	b.WriteString("nocite: " + doubleQuoted("@"+md.Key) + "\n")

	if md.Image != "" {
		b.WriteString("image: " + plainScalar(md.Image) + "\n")
	}

	b.WriteString("\nabout:\n")
	b.WriteString("  template: " + plainScalar(opts.Template) + "\n")
	if len(md.Links) > 0 {
		b.WriteString("  links:\n")
		for _, l := range md.Links {
			b.WriteString("    - text: " + singleQuoted(l.Text) + "\n")
			b.WriteString("      href: " + plainScalar(l.Href) + "\n")
			b.WriteString("      icon: " + plainScalar(l.Icon) + "\n")
		}
	}

	b.WriteString("\nformat:\n  html:\n    page-layout: full\n")
	b.WriteString("---")

	if md.Abstract != "" {
		b.WriteString("\n\n" + md.Abstract)
	}

	b.WriteString("\n\n## BibTeX\n\n```bibtex\n")
	b.WriteString(md.BibTeX)
	b.WriteString("\n```\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFile renders a page to path, creating its directory if needed.
func WriteFile(path string, md Metadata, opts RenderOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating page directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating page: %w", err)
	}

	if err := Render(f, md, opts); err != nil {
		f.Close()
		return fmt.Errorf("writing page %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing page %s: %w", path, err)
	}
	return nil
}

// authorScalar quotes emphasized names, whose leading '*' YAML would read
// as an alias.
func authorScalar(a author.Name) string {
	if a.Emphasis != author.Plain {
		return doubleQuoted(a.Markdown())
	}
	return plainScalar(a.Display)
}

func doubleQuoted(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

func singleQuoted(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// plainScalar leaves s unquoted unless YAML would misread it.
func plainScalar(s string) string {
	if needsQuotes(s) {
		return doubleQuoted(s)
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" || s != strings.TrimSpace(s) {
		return true
	}
	if strings.ContainsAny(s[:1], "-?:,[]{}#&*!|>'\"%@`") {
		return true
	}
	if strings.Contains(s, ": ") || strings.Contains(s, " #") || strings.HasSuffix(s, ":") {
		return true
	}
	if strings.ContainsAny(s, "\n\t") {
		return true
	}
	switch strings.ToLower(s) {
	case "true", "false", "yes", "no", "on", "off", "null", "~":
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	return false
}
