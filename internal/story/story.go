// Package story holds the corpus data model: individual stories and the
// on-disk corpora that collect them.
package story

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Story is a single text with its descriptive metadata. Metadata keys are
// free-form; "author", "year" and "url" are the conventional ones written
// by the gatherers.
type Story struct {
	Name     string         `json:"name" yaml:"name"`
	Body     string         `json:"body" yaml:"body"`
	Metadata map[string]any `json:"metadata" yaml:"metadata"`
}

// FromMap builds a Story from a decoded document, tolerating missing keys.
func FromMap(data map[string]any) Story {
	s := Story{Metadata: map[string]any{}}
	if name, ok := data["name"].(string); ok {
		s.Name = name
	}
	if body, ok := data["body"].(string); ok {
		s.Body = body
	}
	if meta, ok := data["metadata"].(map[string]any); ok {
		s.Metadata = meta
	}
	return s
}

// LoadJSON reads a Story from a JSON file.
func LoadJSON(path string) (Story, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Story{}, fmt.Errorf("read story %s: %w", path, err)
	}
	var s Story
	if err := json.Unmarshal(raw, &s); err != nil {
		return Story{}, fmt.Errorf("decode story %s: %w", path, err)
	}
	if s.Metadata == nil {
		s.Metadata = map[string]any{}
	}
	return s, nil
}

// LoadYAML reads a Story from a YAML file.
func LoadYAML(path string) (Story, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Story{}, fmt.Errorf("read story %s: %w", path, err)
	}
	var s Story
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Story{}, fmt.Errorf("decode story %s: %w", path, err)
	}
	if s.Metadata == nil {
		s.Metadata = map[string]any{}
	}
	return s, nil
}

// SaveJSON writes the story as indented JSON.
func (s Story) SaveJSON(path string) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode story %s: %w", s.Name, err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write story %s: %w", path, err)
	}
	return nil
}

// SaveYAML writes the story as YAML.
func (s Story) SaveYAML(path string) error {
	raw, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode story %s: %w", s.Name, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write story %s: %w", path, err)
	}
	return nil
}

// Author returns the metadata author, or "Unknown".
func (s Story) Author() string {
	if author, ok := s.Metadata["author"].(string); ok && author != "" {
		return author
	}
	return "Unknown"
}

// Year returns the metadata year, or 0 when absent. JSON decoding produces
// float64 for numbers; YAML produces int.
func (s Story) Year() int {
	switch y := s.Metadata["year"].(type) {
	case int:
		return y
	case float64:
		return int(y)
	}
	return 0
}

const excerptLen = 100

// String renders a short human-readable summary with a truncated excerpt.
func (s Story) String() string {
	body := s.Body
	if len(body) > excerptLen {
		body = body[:excerptLen] + " ... [truncated]"
	}
	year := "N/A"
	if y := s.Year(); y != 0 {
		year = fmt.Sprintf("%d", y)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Story: %s\n", s.Name)
	fmt.Fprintf(&b, "Author: %s\n", s.Author())
	fmt.Fprintf(&b, "Year: %s\n", year)
	fmt.Fprintf(&b, "Body Excerpt:\n---%s\n---", body)
	return b.String()
}
