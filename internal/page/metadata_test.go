package page

import (
	"reflect"
	"testing"

	"github.com/matsen/bibpages/internal/author"
	"github.com/matsen/bibpages/internal/bibtex"
)

func f(name, value string) bibtex.Field {
	return bibtex.Field{Name: name, Value: value}
}

var testRoster = author.Roster{
	Self:  []string{"James Doss-Gollin"},
	Group: []string{"Yuchen Lu"},
}

func TestMapper_MapArticle(t *testing.T) {
	e := bibtex.NewEntry("article", "Doss-Gollin:2023",
		f("title", `flood risk \& {ENSO}`),
		f("author", "Doss-Gollin, James and Lu, Yuchen and Smith, Jane"),
		f("journaltitle", "water resources research"),
		f("date", "2023-05-01"),
		f("volume", "59"),
		f("issue", "7"),
		f("number", "3"),
		f("pages", "1--10"),
		f("abstract", "We study floods."),
	)

	md := NewMapper(testRoster).Map(e, "_assets/img/pubs/Doss-Gollin_2023.png")

	if md.Title != "Flood Risk & {ENSO}" {
		t.Errorf("Title = %q", md.Title)
	}
	wantAuthors := []author.Name{
		{Display: "James Doss-Gollin", Emphasis: author.Strong},
		{Display: "Yuchen Lu", Emphasis: author.Italic},
		{Display: "Jane Smith", Emphasis: author.Plain},
	}
	if !reflect.DeepEqual(md.Authors, wantAuthors) {
		t.Errorf("Authors = %+v", md.Authors)
	}
	if md.Date != "2023-05-01" || md.Year != 2023 {
		t.Errorf("Date/Year = %q/%d", md.Date, md.Year)
	}
	if md.Details != "Water Resources Research" {
		t.Errorf("Details = %q", md.Details)
	}
	if md.Volume != "59" || md.Issue != "3" || md.Pages != "1--10" {
		t.Errorf("Volume/Issue/Pages = %q/%q/%q (number should win over issue)", md.Volume, md.Issue, md.Pages)
	}
	if md.Image != "../../_assets/img/pubs/Doss-Gollin_2023.png" {
		t.Errorf("Image = %q", md.Image)
	}
	if md.Abstract != "We study floods." {
		t.Errorf("Abstract = %q", md.Abstract)
	}
	if md.Key != "Doss-Gollin:2023" || md.Type != "article" {
		t.Errorf("Key/Type = %q/%q", md.Key, md.Type)
	}
}

func TestMapper_MapMissingFields(t *testing.T) {
	md := NewMapper(author.Roster{}).Map(bibtex.NewEntry("misc", "bare"), "")

	if md.Title != "" || md.Details != "" || md.Date != "" || md.Year != 0 {
		t.Errorf("expected empty metadata, got %+v", md)
	}
	if len(md.Authors) != 0 || len(md.Links) != 0 || md.Image != "" {
		t.Errorf("expected no authors, links or image, got %+v", md)
	}
}

func TestMapper_MapDates(t *testing.T) {
	tests := []struct {
		name     string
		fields   []bibtex.Field
		wantDate string
		wantYear int
	}{
		{"bare year date", []bibtex.Field{f("date", "2020")}, "2020-01-01", 2020},
		{"full date", []bibtex.Field{f("date", "2020-05-01")}, "2020-05-01", 2020},
		{"year field fallback", []bibtex.Field{f("year", "2018")}, "2018-01-01", 2018},
		{"date wins over year", []bibtex.Field{f("year", "2018"), f("date", "2019-02")}, "2019-02", 2019},
		{"unparsable date", []bibtex.Field{f("date", "forthcoming")}, "forthcoming", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := NewMapper(author.Roster{}).Map(bibtex.NewEntry("online", "k", tt.fields...), "")
			if md.Date != tt.wantDate || md.Year != tt.wantYear {
				t.Errorf("Date/Year = %q/%d, want %q/%d", md.Date, md.Year, tt.wantDate, tt.wantYear)
			}
		})
	}
}

func TestMapper_ArticleFieldsOnlyForArticles(t *testing.T) {
	e := bibtex.NewEntry("inproceedings", "k", f("volume", "1"), f("pages", "2--3"))
	md := NewMapper(author.Roster{}).Map(e, "")
	if md.Volume != "" || md.Pages != "" {
		t.Errorf("non-article should not carry volume/pages: %+v", md)
	}
}

func TestDetails(t *testing.T) {
	tests := []struct {
		name  string
		entry bibtex.Entry
		want  string
	}{
		{
			name:  "article journaltitle",
			entry: bibtex.NewEntry("article", "k", f("journaltitle", "Nature")),
			want:  "Nature",
		},
		{
			name:  "article journal fallback",
			entry: bibtex.NewEntry("article", "k", f("journal", "Science")),
			want:  "Science",
		},
		{
			name:  "article without venue",
			entry: bibtex.NewEntry("article", "k"),
			want:  "",
		},
		{
			name:  "inproceedings booktitle wins",
			entry: bibtex.NewEntry("inproceedings", "k", f("booktitle", "Proc. X"), f("eventtitle", "X"), f("publisher", "AGU")),
			want:  "Proc. X",
		},
		{
			name:  "inproceedings publisher and event",
			entry: bibtex.NewEntry("inproceedings", "k", f("eventtitle", "Fall Meeting"), f("publisher", "AGU")),
			want:  "AGU Fall Meeting",
		},
		{
			name:  "inproceedings event only",
			entry: bibtex.NewEntry("inproceedings", "k", f("eventtitle", "Fall Meeting")),
			want:  "Fall Meeting",
		},
		{
			name:  "inproceedings publisher only",
			entry: bibtex.NewEntry("inproceedings", "k", f("publisher", "AGU")),
			want:  "",
		},
		{
			name:  "other howpublished",
			entry: bibtex.NewEntry("online", "k", f("howpublished", "EarthArXiv")),
			want:  "EarthArXiv",
		},
		{
			name:  "other without howpublished",
			entry: bibtex.NewEntry("misc", "k", f("journaltitle", "ignored")),
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Details(tt.entry); got != tt.want {
				t.Errorf("Details() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLinks(t *testing.T) {
	tests := []struct {
		name   string
		fields []bibtex.Field
		want   []Link
	}{
		{
			name:   "doi takes priority over url",
			fields: []bibtex.Field{f("url", "https://example.com"), f("doi", "10.1/x")},
			want:   []Link{{Text: "DOI: 10.1/x", Href: "https://doi.org/10.1/x", Icon: "link"}},
		},
		{
			name:   "open access doi",
			fields: []bibtex.Field{f("doi", "10.1/x"), f("open", "true")},
			want:   []Link{{Text: "DOI: 10.1/x (Open Access)", Href: "https://doi.org/10.1/x", Icon: "link"}},
		},
		{
			name:   "url only",
			fields: []bibtex.Field{f("url", "https://example.com")},
			want:   []Link{{Text: "Link", Href: "https://example.com", Icon: "link"}},
		},
		{
			name:   "open access url",
			fields: []bibtex.Field{f("url", "https://example.com"), f("open", "true")},
			want:   []Link{{Text: "Open Access", Href: "https://example.com", Icon: "link"}},
		},
		{
			name:   "open must be literal true",
			fields: []bibtex.Field{f("url", "https://example.com"), f("open", "True")},
			want:   []Link{{Text: "Link", Href: "https://example.com", Icon: "link"}},
		},
		{
			name: "fixed order",
			fields: []bibtex.Field{
				f("preprint", "https://eartharxiv.org/x"),
				f("repo", "https://github.com/a/b"),
				f("doi", "10.1/x"),
			},
			want: []Link{
				{Text: "DOI: 10.1/x", Href: "https://doi.org/10.1/x", Icon: "link"},
				{Text: "Code", Href: "https://github.com/a/b", Icon: "github"},
				{Text: "Preprint", Href: "https://eartharxiv.org/x", Icon: "file-pdf"},
			},
		},
		{
			name:   "no links",
			fields: nil,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Links(bibtex.NewEntry("article", "k", tt.fields...))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Links() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
