package gutenberg

import (
	"strings"
)

// Gutenberg texts wrap the work in boilerplate delimited by marker lines.
const (
	startMarker = "*** START OF"
	endMarker   = "*** END OF"
)

// StripBoilerplate removes the Gutenberg header and footer, returning just
// the work itself. Texts without markers are returned unchanged.
func StripBoilerplate(text string) string {
	lines := strings.Split(text, "\n")
	start, end := 0, len(lines)

	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), startMarker) {
			start = i + 1
			break
		}
	}
	for i := len(lines) - 1; i >= start; i-- {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), endMarker) {
			end = i
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}

// HeaderLines returns the lines before the start marker, where Gutenberg
// records Title:, Author:, Language: and Subject: fields.
func HeaderLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), startMarker) {
			return lines[:i]
		}
	}
	return lines
}

var headerPrefixes = map[string]string{
	"title":     "title:",
	"titles":    "title:",
	"author":    "author:",
	"authors":   "author:",
	"language":  "language:",
	"languages": "language:",
	"subject":   "subject:",
	"subjects":  "subject:",
}

// MetadataFromHeader parses a field's values from header lines. It is the
// fallback when the metadata index has no entry for a book. Returns nil
// for unsupported fields.
func MetadataFromHeader(field string, header []string) []string {
	want, ok := headerPrefixes[strings.ToLower(strings.TrimSpace(field))]
	if !ok {
		return nil
	}

	var values []string
	for _, line := range header {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) >= len(want) && strings.EqualFold(trimmed[:len(want)], want) {
			value := strings.TrimSpace(trimmed[len(want):])
			if value != "" {
				values = append(values, value)
			}
		}
	}
	return values
}
