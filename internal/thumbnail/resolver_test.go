package thumbnail

import (
	"context"
	"errors"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matsen/bibpages/internal/bibtex"
)

type fakeFetcher struct {
	responses map[string]error // nil error means success
	calls     map[string]int
}

func newFakeFetcher(responses map[string]error) *fakeFetcher {
	return &fakeFetcher{responses: responses, calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.calls[url]++
	err, ok := f.responses[url]
	if !ok {
		return nil, &StatusError{StatusCode: 404, URL: url}
	}
	if err != nil {
		return nil, err
	}
	return []byte(fakePDF), nil
}

type fakeRasterizer struct {
	err error
}

func (r fakeRasterizer) FirstPage(context.Context, []byte) (image.Image, error) {
	if r.err != nil {
		return nil, r.err
	}
	return image.NewRGBA(image.Rect(0, 0, 800, 1000)), nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func entry(entryType, key string, fields ...string) bibtex.Entry {
	var fs []bibtex.Field
	for i := 0; i+1 < len(fields); i += 2 {
		fs = append(fs, bibtex.Field{Name: fields[i], Value: fields[i+1]})
	}
	return bibtex.NewEntry(entryType, key, fs...)
}

func testOptions(root string, synthesize bool) Options {
	return Options{
		Root:          root,
		AssetsDir:     filepath.Join("_assets", "img", "pubs"),
		Synthesize:    synthesize,
		Width:         400,
		EligibleTypes: []string{"article", "online", "preprint"},
	}
}

func writeAsset(t *testing.T, root, name string) {
	t.Helper()
	dir := filepath.Join(root, "_assets", "img", "pubs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte("img"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestResolver_ExistingImage(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, root, "Smith_2020.jpg")
	writeAsset(t, root, "Smith_2020.jpeg")

	fetcher := newFakeFetcher(nil)
	r := NewResolver(testOptions(root, true), fetcher, fakeRasterizer{}, quietLogger())
	run := NewRun()

	got := r.Resolve(context.Background(), entry("article", "Smith:2020", "doi", "10.1/x"), run)
	want := Outcome{Kind: ExistingImage, Path: filepath.Join("_assets", "img", "pubs", "Smith_2020.jpg")}
	if got != want {
		t.Errorf("Resolve() = %+v, want %+v", got, want)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("existing image should not trigger fetches: %v", fetcher.calls)
	}
	if run.Stats.Existing != 1 || run.Stats.Total() != 1 {
		t.Errorf("stats = %+v", run.Stats)
	}
}

func TestResolver_Policies(t *testing.T) {
	tests := []struct {
		name       string
		synthesize bool
		entry      bibtex.Entry
		want       Kind
	}{
		{
			name:       "synthesis disabled",
			synthesize: false,
			entry:      entry("article", "k", "doi", "10.1/x"),
			want:       NoSource,
		},
		{
			name:       "ineligible type",
			synthesize: true,
			entry:      entry("inproceedings", "k", "doi", "10.1/x"),
			want:       SkippedByType,
		},
		{
			name:       "no candidates",
			synthesize: true,
			entry:      entry("article", "k", "url", "https://example.com/landing"),
			want:       NoSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := newFakeFetcher(nil)
			r := NewResolver(testOptions(t.TempDir(), tt.synthesize), fetcher, fakeRasterizer{}, quietLogger())
			run := NewRun()

			got := r.Resolve(context.Background(), tt.entry, run)
			if got.Kind != tt.want || got.Path != "" {
				t.Errorf("Resolve() = %+v, want kind %v", got, tt.want)
			}
			if len(fetcher.calls) != 0 {
				t.Errorf("unexpected fetches: %v", fetcher.calls)
			}
			if run.Stats.Total() != 1 {
				t.Errorf("exactly one counter should move: %+v", run.Stats)
			}
		})
	}
}

func TestResolver_GeneratesFromFirstWorkingCandidate(t *testing.T) {
	root := t.TempDir()
	e := entry("article", "Doe:2021",
		"preprint", "https://eartharxiv.org/x",
		"url", "https://example.com/paper.pdf",
		"doi", "10.1/x",
	)
	fetcher := newFakeFetcher(map[string]error{
		"https://eartharxiv.org/x":      ErrNotPDF,
		"https://example.com/paper.pdf": nil,
	})
	r := NewResolver(testOptions(root, true), fetcher, fakeRasterizer{}, quietLogger())
	run := NewRun()

	got := r.Resolve(context.Background(), e, run)
	wantPath := filepath.Join("_assets", "img", "pubs", "Doe_2021.png")
	if got.Kind != GeneratedThumbnail || got.Path != wantPath {
		t.Fatalf("Resolve() = %+v", got)
	}
	if fetcher.calls["https://doi.org/10.1/x"] != 0 {
		t.Error("later candidates should not be tried after a success")
	}
	if !run.Failed.Contains("https://eartharxiv.org/x") || run.Failed.Contains("https://example.com/paper.pdf") {
		t.Errorf("memo = %v", run.Failed)
	}

	f, err := os.Open(filepath.Join(root, wantPath))
	if err != nil {
		t.Fatalf("thumbnail not written: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("thumbnail is not a PNG: %v", err)
	}
	if cfg.Width != 400 || cfg.Height != 500 {
		t.Errorf("thumbnail is %dx%d, want 400x500", cfg.Width, cfg.Height)
	}

	// A second run finds the generated file.
	again := r.Resolve(context.Background(), e, NewRun())
	if again.Kind != ExistingImage || again.Path != wantPath {
		t.Errorf("second Resolve() = %+v, want existing %s", again, wantPath)
	}
}

func TestResolver_FailedSourceMemo(t *testing.T) {
	fetcher := newFakeFetcher(map[string]error{
		"https://doi.org/10.1/shared": ErrNetwork,
	})
	r := NewResolver(testOptions(t.TempDir(), true), fetcher, fakeRasterizer{}, quietLogger())
	run := NewRun()

	first := r.Resolve(context.Background(), entry("article", "a", "doi", "10.1/shared"), run)
	second := r.Resolve(context.Background(), entry("online", "b", "doi", "10.1/shared"), run)

	if first.Kind != GenerationFailed || second.Kind != GenerationFailed {
		t.Errorf("outcomes = %v, %v; want failed twice", first.Kind, second.Kind)
	}
	if n := fetcher.calls["https://doi.org/10.1/shared"]; n != 1 {
		t.Errorf("shared source fetched %d times, want 1", n)
	}
	if run.Stats.Failed != 2 || run.Stats.Total() != 2 {
		t.Errorf("stats = %+v", run.Stats)
	}
}

func TestResolver_RasterizerFailure(t *testing.T) {
	fetcher := newFakeFetcher(map[string]error{"https://doi.org/10.1/x": nil})
	r := NewResolver(testOptions(t.TempDir(), true), fetcher, fakeRasterizer{err: errors.New("broken")}, quietLogger())
	run := NewRun()

	got := r.Resolve(context.Background(), entry("preprint", "k", "doi", "10.1/x"), run)
	if got.Kind != GenerationFailed {
		t.Errorf("Resolve() = %+v, want failed", got)
	}
	if !run.Failed.Contains("https://doi.org/10.1/x") {
		t.Error("source should be memoized after a render failure")
	}
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		name  string
		entry bibtex.Entry
		want  []string
	}{
		{
			name: "all sources in order",
			entry: entry("article", "k",
				"doi", "10.1/x",
				"url", "https://arxiv.org/pdf/2101.00001",
				"preprint", "https://eartharxiv.org/x.pdf",
			),
			want: []string{
				"https://eartharxiv.org/x.pdf",
				"https://arxiv.org/pdf/2101.00001",
				"https://doi.org/10.1/x",
			},
		},
		{
			name:  "non-pdf url ignored",
			entry: entry("article", "k", "url", "https://example.com/abstract", "doi", "10.1/x"),
			want:  []string{"https://doi.org/10.1/x"},
		},
		{
			name:  "duplicates dropped",
			entry: entry("article", "k", "preprint", "https://example.com/a.PDF", "url", "https://example.com/a.PDF"),
			want:  []string{"https://example.com/a.PDF"},
		},
		{
			name:  "none",
			entry: entry("article", "k"),
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Candidates(tt.entry); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Candidates() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLooksLikePDF(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/paper.pdf", true},
		{"https://example.com/paper.pdf?download=1", true},
		{"https://arxiv.org/pdf/2101.00001", true},
		{"https://example.com/abs/2101.00001", false},
		{"https://example.com/pdfs", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := LooksLikePDF(tt.url); got != tt.want {
			t.Errorf("LooksLikePDF(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestStats(t *testing.T) {
	var s Stats
	for _, k := range []Kind{ExistingImage, ExistingImage, GeneratedThumbnail, NoSource, SkippedByType, GenerationFailed} {
		s.Record(k)
	}

	want := Stats{Existing: 2, Generated: 1, NoSource: 1, Skipped: 1, Failed: 1}
	if s != want {
		t.Errorf("Stats = %+v, want %+v", s, want)
	}
	if s.Total() != 6 {
		t.Errorf("Total() = %d, want 6", s.Total())
	}
}
