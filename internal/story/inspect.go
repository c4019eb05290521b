package story

import (
	"fmt"
	"sort"
	"strings"
)

const (
	inspectWidth    = 80
	inspectBodyMax  = 1000
	inspectTruncTag = "... [truncated] ..."
)

// Format renders a story for terminal inspection: title, authors,
// metadata, and a wrapped excerpt of the body.
func (s Story) Format() string {
	sep := strings.Repeat("=", inspectWidth)

	var out []string
	out = append(out, sep)

	name := s.Name
	if name == "" {
		name = "<Untitled>"
	}
	out = append(out, "Title: "+name)

	if author := s.Author(); author != "Unknown" {
		out = append(out, "Author:", "   - "+author)
	}
	out = append(out, "")

	if len(s.Metadata) > 0 {
		out = append(out, "Metadata:")
		keys := make([]string, 0, len(s.Metadata))
		for k := range s.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, fmt.Sprintf("   %s: %v", k, s.Metadata[k]))
		}
		out = append(out, "")
	}

	out = append(out, "Story:")
	snippet := s.Body
	truncated := false
	if len(snippet) > inspectBodyMax {
		snippet = snippet[:inspectBodyMax]
		truncated = true
	}
	out = append(out, wrapText(snippet, inspectWidth)...)
	if truncated {
		out = append(out, inspectTruncTag)
	}
	out = append(out, sep)

	return strings.Join(out, "\n")
}

// wrapText greedily wraps words to the given width.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		if len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line += " " + word
	}
	return append(lines, line)
}
