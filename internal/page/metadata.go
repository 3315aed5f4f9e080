// Package page maps bibliography entries to publication page metadata and
// renders that metadata as Quarto pages.
package page

import (
	"path"
	"path/filepath"

	"github.com/matsen/bibpages/internal/author"
	"github.com/matsen/bibpages/internal/bibtex"
	"github.com/matsen/bibpages/internal/textfmt"
)

// Link is one entry of a page's link list.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
	Icon string `json:"icon"`
}

// Metadata is everything a publication page shows about one entry.
type Metadata struct {
	Key      string        `json:"key"`  // Citation key as written in the bibliography
	Type     string        `json:"type"` // Entry type
	Title    string        `json:"title"`
	Authors  []author.Name `json:"authors"`
	Date     string        `json:"date,omitempty"`
	Year     int           `json:"year,omitempty"` // 0 when no year could be extracted
	Details  string        `json:"details"`

	// Article-only fields
	Volume string `json:"volume,omitempty"`
	Issue  string `json:"issue,omitempty"`
	Pages  string `json:"pages,omitempty"`

	Image    string `json:"image,omitempty"` // Relative to the page's directory
	Links    []Link `json:"links,omitempty"`
	Abstract string `json:"abstract,omitempty"`
	BibTeX   string `json:"bibtex"` // Original entry without its abstract
}

// Mapper turns bibliography entries into page metadata.
type Mapper struct {
	roster author.Roster
}

// NewMapper creates a mapper that highlights the given roster.
func NewMapper(roster author.Roster) *Mapper {
	return &Mapper{roster: roster}
}

// Map derives page metadata from an entry. imagePath is the preview image
// relative to the site root, or "" for none.
//
// Map never fails: missing fields produce empty or omitted values.
func (m *Mapper) Map(e bibtex.Entry, imagePath string) Metadata {
	md := Metadata{
		Key:      e.Key,
		Type:     e.Type,
		Title:    textfmt.FormatTitle(textfmt.UnescapeLaTeX(e.Get("title"))),
		Authors:  m.roster.Format(e.Get("author")),
		Details:  textfmt.FormatTitle(textfmt.UnescapeLaTeX(Details(e))),
		Image:    pageRelative(imagePath),
		Links:    Links(e),
		Abstract: e.Get("abstract"),
		BibTeX:   e.BibTeX("abstract"),
	}

	rawDate := e.Get("date")
	if rawDate == "" {
		rawDate = e.Get("year")
	}
	md.Date = textfmt.FormatDate(rawDate)
	if year, ok := textfmt.ExtractYear(rawDate); ok && year != 0 {
		md.Year = year
	}

	if e.Type == "article" {
		md.Volume = e.Get("volume")
		md.Issue = e.Get("number")
		if !e.Has("number") {
			md.Issue = e.Get("issue")
		}
		md.Pages = e.Get("pages")
	}

	return md
}

// Details returns the venue line for an entry.
//
//   - article: the journal title
//   - inproceedings: the book title, else "publisher eventtitle", else the
//     event title
//   - everything else: howpublished
func Details(e bibtex.Entry) string {
	switch e.Type {
	case "article":
		if v, ok := e.Lookup("journaltitle"); ok {
			return v
		}
		return e.Get("journal")
	case "inproceedings":
		if v, ok := e.Lookup("booktitle"); ok {
			return v
		}
		event, hasEvent := e.Lookup("eventtitle")
		if publisher, ok := e.Lookup("publisher"); ok && hasEvent {
			return publisher + " " + event
		}
		return event
	default:
		return e.Get("howpublished")
	}
}

// Links builds the link list: DOI (or else URL), then code repository,
// then preprint.
func Links(e bibtex.Entry) []Link {
	var links []Link
	open := e.Get("open") == "true"

	if doi, ok := e.Lookup("doi"); ok {
		text := "DOI: " + doi
		if open {
			text += " (Open Access)"
		}
		links = append(links, Link{Text: text, Href: "https://doi.org/" + doi, Icon: "link"})
	} else if url, ok := e.Lookup("url"); ok {
		text := "Link"
		if open {
			text = "Open Access"
		}
		links = append(links, Link{Text: text, Href: url, Icon: "link"})
	}

	if repo, ok := e.Lookup("repo"); ok {
		links = append(links, Link{Text: "Code", Href: repo, Icon: "github"})
	}

	if preprint, ok := e.Lookup("preprint"); ok {
		links = append(links, Link{Text: "Preprint", Href: preprint, Icon: "file-pdf"})
	}

	return links
}

// pageRelative rewrites a site-relative path as seen from a page, which
// always sits two directories deep (publications/<kind>/).
func pageRelative(sitePath string) string {
	if sitePath == "" {
		return ""
	}
	return path.Join("../..", filepath.ToSlash(sitePath))
}
