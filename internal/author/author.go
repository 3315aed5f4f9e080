// Package author formats bibliography author lists for display and marks
// the site owner and group members.
package author

import (
	"regexp"
	"strings"
)

// Emphasis is how an author name is highlighted on a page.
type Emphasis int

const (
	Plain  Emphasis = iota
	Italic          // group member
	Strong          // the site owner
)

func (e Emphasis) String() string {
	switch e {
	case Italic:
		return "italic"
	case Strong:
		return "strong"
	default:
		return "plain"
	}
}

// Name is a formatted author ready for display.
type Name struct {
	Display  string
	Emphasis Emphasis
}

// Markdown returns the name wrapped in the markup for its emphasis.
func (n Name) Markdown() string {
	switch n.Emphasis {
	case Strong:
		return "**" + n.Display + "**"
	case Italic:
		return "*" + n.Display + "*"
	default:
		return n.Display
	}
}

// Roster lists who gets highlighted. Names are compared after formatting,
// so they should be written "Given Family".
type Roster struct {
	Self  []string // Names of the site owner, rendered bold
	Group []string // Research group members, rendered italic
}

// Classify returns the emphasis for a formatted name.
//
// Self names match exactly or once hyphens are removed from both sides, so
// "James DossGollin" matches "James Doss-Gollin". Group names must match
// exactly.
func (r Roster) Classify(name string) Emphasis {
	bare := strings.ReplaceAll(name, "-", "")
	for _, self := range r.Self {
		if name == self || bare == strings.ReplaceAll(self, "-", "") {
			return Strong
		}
	}
	for _, member := range r.Group {
		if name == member {
			return Italic
		}
	}
	return Plain
}

// Format splits a BibTeX author field and formats every name in it.
func (r Roster) Format(field string) []Name {
	raw := Split(field)
	names := make([]Name, 0, len(raw))
	for _, a := range raw {
		display := FormatName(a)
		names = append(names, Name{Display: display, Emphasis: r.Classify(display)})
	}
	return names
}

// Split separates a BibTeX author field on " and ".
// Names are trimmed and empty names dropped.
func Split(field string) []string {
	if strings.TrimSpace(field) == "" {
		return nil
	}
	var names []string
	for _, part := range strings.Split(field, " and ") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

var (
	familyTag    = regexp.MustCompile(`(?:^|[\s,])family=([^,]+)`)
	givenTag     = regexp.MustCompile(`(?:^|[\s,])given=([^,]+)`)
	prefixTag    = regexp.MustCompile(`(?:^|[\s,])prefix=([^,]+)`)
	usePrefixTag = regexp.MustCompile(`(?:^|[\s,])useprefix=([^,]+)`)
)

// FormatName converts one BibTeX name to "Given Family" order.
//
// Supported formats:
//   - "family=Gogh, given=Vincent, prefix=van, useprefix=true" → "Vincent van Gogh"
//   - "Doss-Gollin, James" → "James Doss-Gollin"
//   - "James Doss-Gollin"  → unchanged
//
// The prefix of a name-part form is only kept when useprefix=true.
func FormatName(name string) string {
	name = strings.TrimSpace(name)

	if strings.Contains(name, "family=") && strings.Contains(name, "given=") {
		family := tag(familyTag, name)
		given := tag(givenTag, name)
		if prefix := tag(prefixTag, name); prefix != "" && tag(usePrefixTag, name) == "true" {
			family = prefix + " " + family
		}
		return given + " " + family
	}

	if last, first, ok := strings.Cut(name, ","); ok {
		return strings.TrimSpace(first) + " " + strings.TrimSpace(last)
	}

	return name
}

func tag(re *regexp.Regexp, name string) string {
	m := re.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
