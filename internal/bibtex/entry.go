// Package bibtex reads BibTeX and BibLaTeX databases into ordered entries.
package bibtex

import (
	"fmt"
	"strings"
)

// Field is a single name/value pair of an entry.
type Field struct {
	Name  string
	Value string
}

// Entry is one parsed bibliography record.
// Field names are lowercase and keep the order they had in the file.
type Entry struct {
	Type   string // Entry type, lowercase (article, inproceedings, ...)
	Key    string // Citation key as written in the file
	fields []Field
}

// NewEntry builds an entry from a type, key and fields in order.
// Later duplicates of a field name are ignored.
func NewEntry(entryType, key string, fields ...Field) Entry {
	e := Entry{Type: strings.ToLower(entryType), Key: key}
	for _, f := range fields {
		e.add(f.Name, f.Value)
	}
	return e
}

func (e *Entry) add(name, value string) {
	name = strings.ToLower(name)
	if e.Has(name) {
		return
	}
	e.fields = append(e.fields, Field{Name: name, Value: value})
}

// Lookup returns the value of a field and whether it is present.
func (e Entry) Lookup(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, f := range e.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Get returns the value of a field, or "" when absent.
func (e Entry) Get(name string) string {
	v, _ := e.Lookup(name)
	return v
}

// Has reports whether the field is present (even with an empty value).
func (e Entry) Has(name string) bool {
	_, ok := e.Lookup(name)
	return ok
}

// Fields returns a copy of the entry's fields in file order.
func (e Entry) Fields() []Field {
	out := make([]Field, len(e.fields))
	copy(out, e.fields)
	return out
}

// BibTeX renders the entry back to BibTeX, leaving out the named fields.
func (e Entry) BibTeX(skip ...string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s,\n", e.Type, e.Key))
	for _, f := range e.fields {
		if contains(skip, f.Name) {
			continue
		}
		b.WriteString(fmt.Sprintf("  %s = {%s},\n", f.Name, f.Value))
	}
	b.WriteString("}")

	return b.String()
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
