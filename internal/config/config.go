// Package config handles bibpages configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is looked up in the site root when no path is given.
	DefaultConfigFile = "bibpages.yml"

	// EnvRoot overrides the site root (the current directory by default).
	EnvRoot = "BIBPAGES_ROOT"
	// EnvConfig overrides the config file path.
	EnvConfig = "BIBPAGES_CONFIG"
	// EnvThumbnails turns thumbnail synthesis on or off ("true"/"false").
	EnvThumbnails = "BIBPAGES_THUMBNAILS"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the static configuration of a site build.
type Config struct {
	BibFile      string          `yaml:"bib_file" json:"bib_file"`           // Bibliography, relative to the site root
	CSLFile      string          `yaml:"csl_file" json:"csl_file"`           // Citation style referenced from every page
	AssetsDir    string          `yaml:"assets_dir" json:"assets_dir"`       // Preview images, relative to the site root
	Template     string          `yaml:"template" json:"template"`           // Quarto about-page template
	SelfNames    []string        `yaml:"self_names" json:"self_names"`       // Rendered bold in author lists
	GroupMembers []string        `yaml:"group_members" json:"group_members"` // Rendered italic in author lists
	Thumbnails   ThumbnailConfig `yaml:"thumbnails" json:"thumbnails"`
}

// ThumbnailConfig controls preview synthesis from linked PDFs.
type ThumbnailConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled"`
	Width         int           `yaml:"width" json:"width"`                   // Output width in pixels
	DPI           int           `yaml:"dpi" json:"dpi"`                       // Render resolution before scaling
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`               // Per-request timeout
	RateLimit     float64       `yaml:"rate_limit" json:"rate_limit"`         // Requests per second
	Retries       int           `yaml:"retries" json:"retries"`               // Extra attempts on transient errors
	MaxBytes      int64         `yaml:"max_bytes" json:"max_bytes"`           // Largest PDF accepted
	EligibleTypes []string      `yaml:"eligible_types" json:"eligible_types"` // Entry types that get synthesized previews
	UserAgent     string        `yaml:"user_agent" json:"user_agent"`
	Pdftoppm      string        `yaml:"pdftoppm" json:"pdftoppm"` // Path to the poppler pdftoppm binary
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		BibFile:      "my-papers.bib",
		CSLFile:      "american-geophysical-union.csl",
		AssetsDir:    filepath.Join("_assets", "img", "pubs"),
		Template:     "solana",
		SelfNames:    []string{"James Doss-Gollin", "J. Doss-Gollin"},
		GroupMembers: []string{"Yuchen Lu", "Lu, Yuchen"},
		Thumbnails: ThumbnailConfig{
			Enabled:       false,
			Width:         400,
			DPI:           100,
			Timeout:       30 * time.Second,
			RateLimit:     1,
			Retries:       2,
			MaxBytes:      64 << 20,
			EligibleTypes: []string{"article", "online", "preprint"},
			UserAgent:     "bibpages/1.0 (+https://github.com/matsen/bibpages)",
			Pdftoppm:      "pdftoppm",
		},
	}
}

// ConfigPath returns the path of the default config file in a site root.
func ConfigPath(root string) string {
	return filepath.Join(root, DefaultConfigFile)
}

// Load reads a YAML config file on top of the defaults.
// Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// ApplyEnv applies environment overrides to the configuration.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvThumbnails); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, EnvThumbnails, v)
		}
		c.Thumbnails.Enabled = enabled
	}
	return nil
}

// Validate checks that required values are set and numeric limits are sane.
func (c *Config) Validate() error {
	if c.BibFile == "" {
		return fmt.Errorf("%w: bib_file is empty", ErrInvalidConfig)
	}
	if c.AssetsDir == "" {
		return fmt.Errorf("%w: assets_dir is empty", ErrInvalidConfig)
	}
	if c.Template == "" {
		return fmt.Errorf("%w: template is empty", ErrInvalidConfig)
	}
	if !c.Thumbnails.Enabled {
		return nil
	}

	t := c.Thumbnails
	switch {
	case t.Width <= 0:
		return fmt.Errorf("%w: thumbnails.width must be positive, got %d", ErrInvalidConfig, t.Width)
	case t.DPI <= 0:
		return fmt.Errorf("%w: thumbnails.dpi must be positive, got %d", ErrInvalidConfig, t.DPI)
	case t.Timeout <= 0:
		return fmt.Errorf("%w: thumbnails.timeout must be positive, got %s", ErrInvalidConfig, t.Timeout)
	case t.Retries < 0:
		return fmt.Errorf("%w: thumbnails.retries must not be negative, got %d", ErrInvalidConfig, t.Retries)
	case t.MaxBytes <= 0:
		return fmt.Errorf("%w: thumbnails.max_bytes must be positive, got %d", ErrInvalidConfig, t.MaxBytes)
	}
	return nil
}

// BibPath resolves the bibliography path against the site root.
func (c *Config) BibPath(root string) string {
	path := ExpandPath(c.BibFile)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
