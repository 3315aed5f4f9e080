package textfmt

import (
	"regexp"
	"strconv"
	"strings"
)

// FormatDate turns a bare year into "YYYY-01-01". Any other value, well
// formed or not, is returned unchanged.
func FormatDate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if _, err := strconv.Atoi(trimmed); err == nil {
		return trimmed + "-01-01"
	}
	return raw
}

// ExtractYear parses the part of a date before the first '-' as a year.
// It reports false when that part is not an integer.
func ExtractYear(date string) (int, bool) {
	head, _, _ := strings.Cut(strings.TrimSpace(date), "-")
	year, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, false
	}
	return year, true
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeKey makes a citation key safe to use as a file name by replacing
// every character outside [a-zA-Z0-9_-] with '_'.
func SanitizeKey(key string) string {
	return unsafeKeyChars.ReplaceAllString(key, "_")
}
