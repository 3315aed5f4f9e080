// Package pdf validates downloaded PDFs and renders their first page.
package pdf

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ErrInvalid indicates data that does not parse as a PDF with pages.
var ErrInvalid = errors.New("invalid PDF")

// PageCount parses data as a PDF and returns its number of pages.
// Malformed input yields ErrInvalid rather than a panic.
func PageCount(data []byte) (n int, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: %v", ErrInvalid, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	n = r.NumPage()
	if n < 1 {
		return 0, fmt.Errorf("%w: no pages", ErrInvalid)
	}
	return n, nil
}
