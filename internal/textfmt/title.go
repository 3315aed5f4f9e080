// Package textfmt holds the string transforms applied to bibliography fields
// before they are written into page front matter.
package textfmt

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Placeholder delimiters come from the Unicode private use area so they
// cannot collide with title text.
const (
	placeholderOpen  = "\uE000"
	placeholderClose = "\uE001"
)

// minorWords stay lowercase inside a title unless they open or close it.
var minorWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true,
	"but": true, "by": true, "en": true, "for": true, "if": true,
	"in": true, "nor": true, "of": true, "on": true, "or": true,
	"per": true, "the": true, "to": true, "v": true, "v.": true,
	"via": true, "vs": true, "vs.": true,
}

// FormatTitle title-cases a BibTeX title while keeping brace-protected spans
// exactly as written.
//
// Doubled braces collapse first ("{{x}}" becomes "{x}"), then every braced
// span is swapped for a placeholder, the remainder is title-cased and the
// spans are put back verbatim, braces included. Only outermost spans are
// masked, so nested groups stay untouched along with their parent.
func FormatTitle(title string) string {
	if title == "" {
		return title
	}

	for strings.Contains(title, "{{") && strings.Contains(title, "}}") {
		title = strings.ReplaceAll(title, "{{", "{")
		title = strings.ReplaceAll(title, "}}", "}")
	}

	masked, spans := maskSpans(title)
	cased := TitleCase(masked)

	for i, span := range spans {
		cased = strings.Replace(cased, placeholder(i), span, 1)
	}
	return cased
}

// maskSpans replaces every outermost balanced {...} group, nested groups
// included, with a placeholder. Unbalanced braces are left in place.
func maskSpans(s string) (string, []string) {
	var b strings.Builder
	var spans []string
	depth, start := 0, 0

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				b.WriteByte('}')
				continue
			}
			depth--
			if depth == 0 {
				spans = append(spans, s[start:i+1])
				b.WriteString(placeholder(len(spans) - 1))
			}
		default:
			if depth == 0 {
				b.WriteByte(s[i])
			}
		}
	}
	if depth > 0 {
		b.WriteString(s[start:])
	}

	return b.String(), spans
}

func placeholder(i int) string {
	return placeholderOpen + strconv.Itoa(i) + placeholderClose
}

// TitleCase capitalizes each word of s.
//
// Minor words are lowercased unless first, last or right after a colon.
// Words with capitals past their first letter (acronyms, "iPhone") and
// words holding a placeholder are left alone. Whitespace is preserved.
func TitleCase(s string) string {
	locs := wordPattern.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s
	}

	var b strings.Builder
	last := 0
	afterColon := false
	for i, loc := range locs {
		b.WriteString(s[last:loc[0]])
		word := s[loc[0]:loc[1]]

		first, final := i == 0, i == len(locs)-1
		switch {
		case strings.Contains(word, placeholderOpen):
			// leave protected spans alone
		case !first && !final && !afterColon && isMinor(word):
			word = strings.ToLower(word)
		default:
			word = capitalizeWord(word)
		}
		b.WriteString(word)

		afterColon = strings.HasSuffix(word, ":")
		last = loc[1]
	}
	b.WriteString(s[last:])

	return b.String()
}

var wordPattern = regexp.MustCompile(`\S+`)

func isMinor(word string) bool {
	core := strings.TrimFunc(word, func(r rune) bool {
		return unicode.IsPunct(r) && r != '.'
	})
	return minorWords[strings.ToLower(core)]
}

// capitalizeWord uppercases the first letter of each hyphen-separated part.
func capitalizeWord(word string) string {
	if strings.Contains(word, "://") || strings.Contains(word, "@") {
		return word
	}
	parts := strings.Split(word, "-")
	for i, part := range parts {
		parts[i] = capitalizePart(part)
	}
	return strings.Join(parts, "-")
}

func capitalizePart(part string) string {
	// Skip leading punctuation such as quotes and parentheses.
	idx := strings.IndexFunc(part, func(r rune) bool {
		return !unicode.IsPunct(r)
	})
	if idx < 0 {
		return part
	}
	r, size := utf8.DecodeRuneInString(part[idx:])
	if !unicode.IsLetter(r) {
		return part
	}
	if hasInnerUpper(part[idx+size:]) {
		return part
	}
	return part[:idx] + string(unicode.ToUpper(r)) + part[idx+size:]
}

func hasInnerUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// UnescapeLaTeX undoes the escapes BibTeX exports commonly put in titles
// and venue names.
func UnescapeLaTeX(s string) string {
	return strings.NewReplacer(`\&`, "&", `\:`, ":").Replace(s)
}
