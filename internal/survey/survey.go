// Package survey computes corpus-wide statistics over gathered story
// files: per-story and per-author word, character, and token counts.
package survey

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/storycorpus/storycorpus/internal/chunk"
	"github.com/storycorpus/storycorpus/internal/story"
)

// FindOptions controls corpus discovery.
type FindOptions struct {
	// IgnoreDirNames are directory names pruned anywhere in the tree,
	// matched case-insensitively. Defaults to {"cache"}.
	IgnoreDirNames []string
	// IgnoreHidden skips dot-directories and dot-files.
	IgnoreHidden bool
}

// FindStories recursively lists all .json files under root, pruning
// ignored directories. The result is sorted.
func FindStories(root string, opts FindOptions) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	ignore := map[string]bool{"cache": true}
	if opts.IgnoreDirNames != nil {
		ignore = make(map[string]bool, len(opts.IgnoreDirNames))
		for _, name := range opts.IgnoreDirNames {
			ignore[strings.ToLower(name)] = true
		}
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if ignore[strings.ToLower(name)] {
				return filepath.SkipDir
			}
			if opts.IgnoreHidden && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if opts.IgnoreHidden && strings.HasPrefix(name, ".") {
			return nil
		}
		if strings.EqualFold(filepath.Ext(name), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// StoryStats holds metrics for a single story file.
type StoryStats struct {
	Path    string
	StoryID string
	Title   string
	Authors []string

	TitleWords  int
	TitleChars  int
	TitleTokens int

	BodyWords      int
	BodyChars      int
	BodyTokens     int
	BodyParagraphs int
}

// AuthorStats aggregates body metrics across one author's stories.
type AuthorStats struct {
	Author     string
	Stories    int
	BodyWords  int
	BodyChars  int
	BodyTokens int
}

// Surveyor computes corpus statistics. Stories whose normalized title
// and author set repeat are counted once.
type Surveyor struct {
	model  string
	dedupe bool
	log    *slog.Logger
}

// NewSurveyor builds a surveyor using the given model's tokenizer for
// token counts. A nil logger discards warnings.
func NewSurveyor(model string, log *slog.Logger) *Surveyor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Surveyor{model: model, dedupe: true, log: log}
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func normalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " ")))
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

var paragraphRe = regexp.MustCompile(`\n\s*\n`)

// paragraphCount counts blank-line separated blocks of text.
func paragraphCount(s string) int {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	count := 0
	for _, block := range paragraphRe.Split(s, -1) {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	return count
}

// dedupeKey identifies a story by normalized title and sorted,
// lowercased authors.
func dedupeKey(title string, authors []string) string {
	lowered := make([]string, len(authors))
	for i, a := range authors {
		lowered[i] = strings.ToLower(a)
	}
	sort.Strings(lowered)
	return normalizeTitle(title) + "::" + strings.Join(lowered, ";")
}

// Survey reads every story file and returns per-story and per-author
// statistics. Unreadable files are logged and skipped.
func (s *Surveyor) Survey(paths []string) ([]StoryStats, []AuthorStats, error) {
	seen := make(map[string]bool)
	var stories []StoryStats

	for _, path := range paths {
		st, err := story.LoadJSON(path)
		if err != nil {
			s.log.Warn("skipping unreadable story", "path", path, "error", err)
			continue
		}

		title := strings.TrimSpace(st.Name)
		if title == "" {
			title = "<Untitled>"
		}
		authors := storyAuthors(st)

		key := dedupeKey(title, authors)
		if s.dedupe && seen[key] {
			continue
		}
		seen[key] = true

		titleTokens, err := chunk.CountTokens(title, s.model)
		if err != nil {
			return nil, nil, fmt.Errorf("counting title tokens for %s: %w", path, err)
		}
		bodyTokens, err := chunk.CountTokens(st.Body, s.model)
		if err != nil {
			return nil, nil, fmt.Errorf("counting body tokens for %s: %w", path, err)
		}

		stories = append(stories, StoryStats{
			Path:           path,
			StoryID:        key,
			Title:          title,
			Authors:        authors,
			TitleWords:     wordCount(title),
			TitleChars:     len(title),
			TitleTokens:    titleTokens,
			BodyWords:      wordCount(st.Body),
			BodyChars:      len(st.Body),
			BodyTokens:     bodyTokens,
			BodyParagraphs: paragraphCount(st.Body),
		})
	}

	return stories, aggregateAuthors(stories), nil
}

// storyAuthors pulls author names from story metadata, accepting a
// single string or a list.
func storyAuthors(st story.Story) []string {
	raw, ok := st.Metadata["author"]
	if !ok {
		return nil
	}
	var out []string
	switch v := raw.(type) {
	case string:
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if t := strings.TrimSpace(s); t != "" {
					out = append(out, t)
				}
			}
		}
	case []string:
		for _, s := range v {
			if t := strings.TrimSpace(s); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

func aggregateAuthors(stories []StoryStats) []AuthorStats {
	byAuthor := make(map[string]*AuthorStats)
	for _, st := range stories {
		for _, author := range st.Authors {
			agg, ok := byAuthor[author]
			if !ok {
				agg = &AuthorStats{Author: author}
				byAuthor[author] = agg
			}
			agg.Stories++
			agg.BodyWords += st.BodyWords
			agg.BodyChars += st.BodyChars
			agg.BodyTokens += st.BodyTokens
		}
	}

	out := make([]AuthorStats, 0, len(byAuthor))
	for _, agg := range byAuthor {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stories != out[j].Stories {
			return out[i].Stories > out[j].Stories
		}
		if out[i].BodyWords != out[j].BodyWords {
			return out[i].BodyWords > out[j].BodyWords
		}
		return out[i].Author < out[j].Author
	})
	return out
}
