package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/bibpages/internal/pipeline"
	"github.com/matsen/bibpages/internal/site"
	"github.com/matsen/bibpages/internal/thumbnail"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// formatSummary renders a generation summary for humans.
func formatSummary(s *pipeline.Summary) string {
	var b strings.Builder

	total := 0
	for _, n := range s.Pages {
		total += n
	}
	fmt.Fprintf(&b, "Generated %d pages from %d entries\n", total, s.Entries)
	for _, dir := range site.TypeDirs {
		fmt.Fprintf(&b, "  %-12s %d\n", dir+":", s.Pages[dir])
	}

	if s.Clean != nil {
		fmt.Fprintf(&b, "Removed %d old pages\n", s.Clean.Total)
	}
	b.WriteString(formatImageStats(s.Images))

	if len(s.DuplicateKeys) > 0 {
		fmt.Fprintf(&b, "Warning: keys overwrote an earlier page: %s\n", strings.Join(s.DuplicateKeys, ", "))
	}
	return b.String()
}

func formatImageStats(st thumbnail.Stats) string {
	return fmt.Sprintf("Images: %d existing, %d generated, %d without source, %d skipped, %d failed\n",
		st.Existing, st.Generated, st.NoSource, st.Skipped, st.Failed)
}

// formatCleanReport renders a cleanup report for humans.
func formatCleanReport(r *site.CleanReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Removed %d pages\n", r.Total)
	for _, dir := range site.TypeDirs {
		if n := r.Removed[dir]; n > 0 {
			fmt.Fprintf(&b, "  %-12s %d\n", dir+":", n)
		}
	}
	for _, dir := range r.Created {
		fmt.Fprintf(&b, "Created %s\n", dir)
	}
	return b.String()
}
