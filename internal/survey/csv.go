package survey

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var storyHeader = []string{
	"path", "story_id", "title", "authors", "n_authors",
	"title_words", "title_chars", "title_tokens",
	"body_words", "body_chars", "body_tokens", "body_paragraphs",
}

var authorHeader = []string{
	"author", "stories", "body_words", "body_chars", "body_tokens",
}

// WriteStoryCSV writes per-story statistics to path. Authors are
// joined with "; " in a single column.
func WriteStoryCSV(path string, stats []StoryStats) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(storyHeader); err != nil {
		return err
	}
	for _, s := range stats {
		record := []string{
			s.Path,
			s.StoryID,
			s.Title,
			strings.Join(s.Authors, "; "),
			strconv.Itoa(len(s.Authors)),
			strconv.Itoa(s.TitleWords),
			strconv.Itoa(s.TitleChars),
			strconv.Itoa(s.TitleTokens),
			strconv.Itoa(s.BodyWords),
			strconv.Itoa(s.BodyChars),
			strconv.Itoa(s.BodyTokens),
			strconv.Itoa(s.BodyParagraphs),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteAuthorCSV writes per-author statistics to path.
func WriteAuthorCSV(path string, stats []AuthorStats) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(authorHeader); err != nil {
		return err
	}
	for _, a := range stats {
		record := []string{
			a.Author,
			strconv.Itoa(a.Stories),
			strconv.Itoa(a.BodyWords),
			strconv.Itoa(a.BodyChars),
			strconv.Itoa(a.BodyTokens),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadAuthorCSV loads a per-author report written by WriteAuthorCSV.
func ReadAuthorCSV(path string) ([]AuthorStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("report %s is empty", path)
	}
	if len(records[0]) != len(authorHeader) {
		return nil, fmt.Errorf("report %s has %d columns, want %d", path, len(records[0]), len(authorHeader))
	}

	var out []AuthorStats
	for i, rec := range records[1:] {
		nums := make([]int, 4)
		for j, field := range rec[1:] {
			n, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("report %s row %d: %w", path, i+2, err)
			}
			nums[j] = n
		}
		out = append(out, AuthorStats{
			Author:     rec[0],
			Stories:    nums[0],
			BodyWords:  nums[1],
			BodyChars:  nums[2],
			BodyTokens: nums[3],
		})
	}
	return out, nil
}
