// Package site knows the layout of the generated publication tree.
package site

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/matsen/bibpages/internal/textfmt"
)

const (
	// PublicationsDir holds one subdirectory per publication kind.
	PublicationsDir = "publications"
	// PageExt is the extension of generated pages.
	PageExt = ".qmd"

	ArticleDir     = "article"
	ConferenceDir  = "conference"
	ForthcomingDir = "forthcoming"
	OtherDir       = "other"
)

// TypeDirs lists every publication subdirectory.
var TypeDirs = []string{ArticleDir, ConferenceDir, OtherDir, ForthcomingDir}

// TypeDir maps an entry type to its publication subdirectory.
// Unknown types land in "other".
func TypeDir(entryType string) string {
	switch entryType {
	case "article":
		return ArticleDir
	case "inproceedings":
		return ConferenceDir
	case "online", "preprint":
		return ForthcomingDir
	default:
		return OtherDir
	}
}

// DirFor returns the site-relative directory for an entry type,
// e.g. "publications/conference".
func DirFor(entryType string) string {
	return filepath.Join(PublicationsDir, TypeDir(entryType))
}

// PagePath returns the page file path for a citation key.
func PagePath(root, entryType, key string) string {
	return filepath.Join(root, DirFor(entryType), textfmt.SanitizeKey(key)+PageExt)
}

// CleanReport describes what Clean removed and created.
type CleanReport struct {
	Removed map[string]int `json:"removed"`           // Pages removed per subdirectory
	Created []string       `json:"created,omitempty"` // Directories that had to be created
	Total   int            `json:"total_removed"`
}

// Clean deletes previously generated pages and makes sure every output
// directory and the assets directory exist. Images are never removed.
func Clean(root, assetsDir string, logger *slog.Logger) (*CleanReport, error) {
	report := &CleanReport{Removed: make(map[string]int)}

	for _, name := range TypeDirs {
		dir := filepath.Join(root, PublicationsDir, name)

		info, err := os.Stat(dir)
		switch {
		case os.IsNotExist(err):
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("creating %s: %w", dir, err)
			}
			report.Created = append(report.Created, dir)
			logger.Info("created directory", "dir", dir)
			continue
		case err != nil:
			return nil, fmt.Errorf("checking %s: %w", dir, err)
		case !info.IsDir():
			return nil, fmt.Errorf("%s exists and is not a directory", dir)
		}

		pages, err := filepath.Glob(filepath.Join(dir, "*"+PageExt))
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", dir, err)
		}
		for _, page := range pages {
			if err := os.Remove(page); err != nil {
				return nil, fmt.Errorf("removing %s: %w", page, err)
			}
		}
		if len(pages) > 0 {
			report.Removed[name] = len(pages)
			report.Total += len(pages)
			logger.Info("removed pages", "dir", dir, "count", len(pages))
		}
	}

	assets := filepath.Join(root, assetsDir)
	if err := os.MkdirAll(assets, 0755); err != nil {
		return nil, fmt.Errorf("creating assets directory %s: %w", assets, err)
	}

	return report, nil
}
