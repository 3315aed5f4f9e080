package thumbnail

import (
	"errors"
	"fmt"
)

// Errors returned by the fetcher.
var (
	// ErrNotPDF indicates the response body is not a PDF (often an HTML landing page).
	ErrNotPDF = errors.New("response is not a PDF")

	// ErrHTTPStatus indicates a non-2xx response.
	ErrHTTPStatus = errors.New("unexpected HTTP status")

	// ErrTooLarge indicates the body exceeded the configured size cap.
	ErrTooLarge = errors.New("response too large")

	// ErrNetwork indicates a transport failure.
	ErrNetwork = errors.New("network error")
)

// StatusError carries the HTTP status of a failed fetch.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d from %s", ErrHTTPStatus, e.StatusCode, e.URL)
}

func (e *StatusError) Unwrap() error {
	return ErrHTTPStatus
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// IsNotPDF returns true if the source served something other than a PDF.
func IsNotPDF(err error) bool {
	return errors.Is(err, ErrNotPDF)
}

// IsTransient returns true if the error might go away on retry.
func IsTransient(err error) bool {
	if errors.Is(err, ErrNetwork) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}
	return false
}
