package bibtex

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// monthMacros are the month abbreviations every BibTeX style predefines.
var monthMacros = map[string]string{
	"jan": "January",
	"feb": "February",
	"mar": "March",
	"apr": "April",
	"may": "May",
	"jun": "June",
	"jul": "July",
	"aug": "August",
	"sep": "September",
	"oct": "October",
	"nov": "November",
	"dec": "December",
}

// SyntaxError describes malformed BibTeX input.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("bibtex: line %d: %s", e.Line, e.Msg)
}

// ParseFile reads and parses a .bib file.
func ParseFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}
	return ParseString(string(data))
}

// Parse parses every entry from r.
func Parse(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}
	return ParseString(string(data))
}

// ParseString parses a BibTeX database held in memory.
//
// Text outside of @-blocks is ignored, @comment and @preamble blocks are
// skipped and @string macros are expanded in the values that follow them.
// Values keep their inner braces; runs of whitespace collapse to one space.
func ParseString(src string) ([]Entry, error) {
	p := &parser{src: src, macros: make(map[string]string, len(monthMacros))}
	for k, v := range monthMacros {
		p.macros[k] = v
	}
	return p.parse()
}

type parser struct {
	src    string
	pos    int
	macros map[string]string
}

func (p *parser) parse() ([]Entry, error) {
	var entries []Entry

	for {
		at := strings.IndexByte(p.src[p.pos:], '@')
		if at < 0 {
			return entries, nil
		}
		p.pos += at + 1

		p.skipSpace()
		kind := strings.ToLower(p.readName())
		if kind == "" {
			return nil, p.errorf("expected entry type after '@'")
		}
		p.skipSpace()
		closer, err := p.open()
		if err != nil {
			return nil, err
		}

		switch kind {
		case "comment", "preamble":
			if err := p.skipBlock(closer); err != nil {
				return nil, err
			}
		case "string":
			if err := p.parseMacro(closer); err != nil {
				return nil, err
			}
		default:
			e, err := p.parseEntry(kind, closer)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
	}
}

func (p *parser) parseEntry(kind string, closer byte) (Entry, error) {
	p.skipSpace()
	start := p.pos
	for !p.eof() && p.peek() != ',' && p.peek() != closer {
		p.pos++
	}
	if p.eof() {
		return Entry{}, p.errorf("unterminated @%s entry", kind)
	}
	key := strings.TrimSpace(p.src[start:p.pos])
	if key == "" {
		return Entry{}, p.errorf("missing citation key in @%s entry", kind)
	}

	e := Entry{Type: kind, Key: key}
	if p.peek() == closer {
		p.pos++
		return e, nil
	}
	p.pos++ // comma after the key

	for {
		p.skipSpace()
		if p.eof() {
			return Entry{}, p.errorf("unterminated entry %q", key)
		}
		if p.peek() == closer {
			p.pos++
			return e, nil
		}

		name := p.readName()
		if name == "" {
			return Entry{}, p.errorf("expected field name in entry %q, found %q", key, p.peek())
		}
		p.skipSpace()
		if p.eof() || p.peek() != '=' {
			return Entry{}, p.errorf("expected '=' after field %q in entry %q", name, key)
		}
		p.pos++

		value, err := p.readValue()
		if err != nil {
			return Entry{}, err
		}
		e.add(name, collapseSpace(value))

		p.skipSpace()
		if p.eof() {
			return Entry{}, p.errorf("unterminated entry %q", key)
		}
		switch p.peek() {
		case ',':
			p.pos++
		case closer:
			p.pos++
			return e, nil
		default:
			return Entry{}, p.errorf("expected ',' after field %q in entry %q", name, key)
		}
	}
}

func (p *parser) parseMacro(closer byte) error {
	p.skipSpace()
	name := p.readName()
	if name == "" {
		return p.errorf("expected macro name in @string")
	}
	p.skipSpace()
	if p.eof() || p.peek() != '=' {
		return p.errorf("expected '=' after macro %q", name)
	}
	p.pos++

	value, err := p.readValue()
	if err != nil {
		return err
	}
	p.macros[strings.ToLower(name)] = collapseSpace(value)

	p.skipSpace()
	if !p.eof() && p.peek() == ',' {
		p.pos++
		p.skipSpace()
	}
	if p.eof() || p.peek() != closer {
		return p.errorf("unterminated @string %q", name)
	}
	p.pos++
	return nil
}

// readValue reads a field value: braced, quoted, numeric or macro parts
// joined with '#'.
func (p *parser) readValue() (string, error) {
	var parts []string

	for {
		p.skipSpace()
		if p.eof() {
			return "", p.errorf("missing value")
		}

		var part string
		var err error
		switch c := p.peek(); {
		case c == '{':
			part, err = p.readBraced()
		case c == '"':
			part, err = p.readQuoted()
		case isDigit(c):
			start := p.pos
			for !p.eof() && isDigit(p.peek()) {
				p.pos++
			}
			part = p.src[start:p.pos]
		default:
			name := p.readName()
			if name == "" {
				return "", p.errorf("unexpected %q in value", c)
			}
			if v, ok := p.macros[strings.ToLower(name)]; ok {
				part = v
			} else {
				part = name
			}
		}
		if err != nil {
			return "", err
		}
		parts = append(parts, part)

		p.skipSpace()
		if !p.eof() && p.peek() == '#' {
			p.pos++
			continue
		}
		return strings.Join(parts, ""), nil
	}
}

// readBraced returns the text between a balanced pair of braces.
func (p *parser) readBraced() (string, error) {
	p.pos++
	start := p.pos
	depth := 0
	for !p.eof() {
		switch p.peek() {
		case '\\':
			p.pos += 2
			continue
		case '{':
			depth++
		case '}':
			if depth == 0 {
				value := p.src[start:p.pos]
				p.pos++
				return value, nil
			}
			depth--
		}
		p.pos++
	}
	return "", p.errorf("unbalanced braces in value")
}

// readQuoted returns the text between double quotes; quotes nested in
// braces do not end the value.
func (p *parser) readQuoted() (string, error) {
	p.pos++
	start := p.pos
	depth := 0
	for !p.eof() {
		switch p.peek() {
		case '\\':
			p.pos += 2
			continue
		case '{':
			depth++
		case '}':
			depth--
		case '"':
			if depth == 0 {
				value := p.src[start:p.pos]
				p.pos++
				return value, nil
			}
		}
		p.pos++
	}
	return "", p.errorf("unterminated quoted value")
}

// skipBlock skips to the closer matching the opening delimiter just read.
func (p *parser) skipBlock(closer byte) error {
	opener := byte('{')
	if closer == ')' {
		opener = '('
	}
	depth := 0
	for !p.eof() {
		switch p.peek() {
		case opener:
			depth++
		case closer:
			if depth == 0 {
				p.pos++
				return nil
			}
			depth--
		}
		p.pos++
	}
	return p.errorf("unterminated block")
}

func (p *parser) open() (byte, error) {
	if p.eof() {
		return 0, p.errorf("unexpected end of input")
	}
	switch p.peek() {
	case '{':
		p.pos++
		return '}', nil
	case '(':
		p.pos++
		return ')', nil
	}
	return 0, p.errorf("expected '{' or '(' but found %q", p.peek())
}

func (p *parser) readName() string {
	start := p.pos
	for !p.eof() && isNameChar(p.peek()) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// skipSpace skips whitespace and %-comments.
func (p *parser) skipSpace() {
	for !p.eof() {
		switch c := p.peek(); {
		case c == '%':
			for !p.eof() && p.peek() != '\n' {
				p.pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) eof() bool  { return p.pos >= len(p.src) }
func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) errorf(format string, args ...any) error {
	end := p.pos
	if end > len(p.src) {
		end = len(p.src)
	}
	return &SyntaxError{
		Line: strings.Count(p.src[:end], "\n") + 1,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNameChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', isDigit(c):
		return true
	}
	return strings.IndexByte("_-:.+/", c) >= 0
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
