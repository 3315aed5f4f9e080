// Package thumbnail resolves a preview image for each bibliography entry:
// an image already in the assets directory or, when enabled, a thumbnail
// synthesized from the first page of a linked PDF.
package thumbnail

import "encoding/json"

// Kind classifies how an entry's image was resolved.
type Kind int

const (
	ExistingImage Kind = iota
	GeneratedThumbnail
	NoSource
	SkippedByType
	GenerationFailed
)

func (k Kind) String() string {
	switch k {
	case ExistingImage:
		return "existing"
	case GeneratedThumbnail:
		return "generated"
	case NoSource:
		return "no_source"
	case SkippedByType:
		return "skipped"
	case GenerationFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Outcome is the result of resolving one entry.
type Outcome struct {
	Kind Kind   `json:"kind"`
	Path string `json:"path,omitempty"` // Site-relative image path for ExistingImage and GeneratedThumbnail
}

// HasImage reports whether the outcome carries an image path.
func (o Outcome) HasImage() bool {
	return o.Kind == ExistingImage || o.Kind == GeneratedThumbnail
}

// Stats counts outcomes across a run.
type Stats struct {
	Existing  int `json:"existing"`
	Generated int `json:"generated"`
	NoSource  int `json:"no_source"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Record increments the counter for k.
func (s *Stats) Record(k Kind) {
	switch k {
	case ExistingImage:
		s.Existing++
	case GeneratedThumbnail:
		s.Generated++
	case NoSource:
		s.NoSource++
	case SkippedByType:
		s.Skipped++
	case GenerationFailed:
		s.Failed++
	}
}

// Total returns the number of recorded outcomes.
func (s Stats) Total() int {
	return s.Existing + s.Generated + s.NoSource + s.Skipped + s.Failed
}

// FailedSources remembers source URLs that failed during the current run
// so later entries sharing a source do not retry it.
type FailedSources map[string]struct{}

// Add marks url as failed.
func (f FailedSources) Add(url string) {
	f[url] = struct{}{}
}

// Contains reports whether url already failed.
func (f FailedSources) Contains(url string) bool {
	_, ok := f[url]
	return ok
}

// Run is the mutable state of one generation run.
type Run struct {
	Stats  Stats
	Failed FailedSources
}

// NewRun returns zeroed run state.
func NewRun() *Run {
	return &Run{Failed: make(FailedSources)}
}
