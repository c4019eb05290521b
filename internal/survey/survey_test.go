package survey

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/storycorpus/storycorpus/internal/story"
)

func writeStory(t *testing.T, dir, name string, st story.Story) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := st.SaveJSON(path); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	return path
}

func testCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeStory(t, filepath.Join(root, "wilde"), "happy_prince.json", story.Story{
		Name:     "The Happy Prince",
		Body:     "High above the city stood the statue of the Happy Prince.",
		Metadata: map[string]any{"author": "Oscar Wilde"},
	})
	writeStory(t, filepath.Join(root, "wilde"), "nightingale.json", story.Story{
		Name:     "The Nightingale and the Rose",
		Body:     "She said that she would dance with me if I brought her red roses.",
		Metadata: map[string]any{"author": "Oscar Wilde"},
	})
	writeStory(t, filepath.Join(root, "ohenry"), "gift.json", story.Story{
		Name:     "The Gift of the Magi",
		Body:     "One dollar and eighty-seven cents. That was all.",
		Metadata: map[string]any{"author": "O. Henry"},
	})
	// Cached downloads must never be surveyed as stories.
	cacheDir := filepath.Join(root, "cache")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cacheDir, "raw.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestFindStories(t *testing.T) {
	root := testCorpus(t)
	paths, err := FindStories(root, FindOptions{})
	if err != nil {
		t.Fatalf("FindStories: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("got %d paths, want 3: %v", len(paths), paths)
	}
	for _, p := range paths {
		if filepath.Base(filepath.Dir(p)) == "cache" {
			t.Errorf("cache dir not pruned: %s", p)
		}
	}
	if !sortedStrings(paths) {
		t.Error("paths are not sorted")
	}
}

func sortedStrings(ss []string) bool {
	for i := 1; i < len(ss); i++ {
		if ss[i-1] > ss[i] {
			return false
		}
	}
	return true
}

func TestFindStoriesMissingRoot(t *testing.T) {
	if _, err := FindStories(filepath.Join(t.TempDir(), "nope"), FindOptions{}); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestFindStoriesIgnoreHidden(t *testing.T) {
	root := t.TempDir()
	writeStory(t, filepath.Join(root, ".archive"), "old.json", story.Story{Name: "Old"})
	writeStory(t, root, "kept.json", story.Story{Name: "Kept"})

	paths, err := FindStories(root, FindOptions{IgnoreHidden: true})
	if err != nil {
		t.Fatalf("FindStories: %v", err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "kept.json" {
		t.Errorf("paths = %v", paths)
	}
}

func TestSurvey(t *testing.T) {
	root := testCorpus(t)
	paths, err := FindStories(root, FindOptions{})
	if err != nil {
		t.Fatalf("FindStories: %v", err)
	}

	s := NewSurveyor("gpt-4o", nil)
	stories, authors, err := s.Survey(paths)
	if err != nil {
		t.Fatalf("Survey: %v", err)
	}
	if len(stories) != 3 {
		t.Fatalf("got %d stories, want 3", len(stories))
	}
	for _, st := range stories {
		if st.BodyWords == 0 || st.BodyChars == 0 || st.BodyTokens == 0 || st.BodyParagraphs == 0 {
			t.Errorf("story %q has zero body metrics: %+v", st.Title, st)
		}
	}

	if len(authors) != 2 {
		t.Fatalf("got %d authors, want 2: %+v", len(authors), authors)
	}
	if authors[0].Author != "Oscar Wilde" || authors[0].Stories != 2 {
		t.Errorf("top author = %+v, want Oscar Wilde with 2 stories", authors[0])
	}
	if authors[1].Author != "O. Henry" || authors[1].Stories != 1 {
		t.Errorf("second author = %+v", authors[1])
	}
}

func TestSurveyDedupes(t *testing.T) {
	root := t.TempDir()
	st := story.Story{
		Name:     "The Happy Prince",
		Body:     "Body text.",
		Metadata: map[string]any{"author": "Oscar Wilde"},
	}
	p1 := writeStory(t, filepath.Join(root, "a"), "one.json", st)
	st.Name = "the  happy   prince" // same title after normalization
	p2 := writeStory(t, filepath.Join(root, "b"), "two.json", st)

	s := NewSurveyor("gpt-4o", nil)
	stories, _, err := s.Survey([]string{p1, p2})
	if err != nil {
		t.Fatalf("Survey: %v", err)
	}
	if len(stories) != 1 {
		t.Errorf("got %d stories, want 1 after dedupe", len(stories))
	}
}

func TestSurveySkipsUnreadable(t *testing.T) {
	root := t.TempDir()
	good := writeStory(t, root, "good.json", story.Story{Name: "Good", Body: "text"})
	bad := filepath.Join(root, "bad.json")
	if err := os.WriteFile(bad, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewSurveyor("gpt-4o", nil)
	stories, _, err := s.Survey([]string{bad, good})
	if err != nil {
		t.Fatalf("Survey: %v", err)
	}
	if len(stories) != 1 || stories[0].Title != "Good" {
		t.Errorf("stories = %+v", stories)
	}
}

func TestSurveyUntitled(t *testing.T) {
	root := t.TempDir()
	p := writeStory(t, root, "anon.json", story.Story{Body: "text without a name"})

	s := NewSurveyor("gpt-4o", nil)
	stories, authors, err := s.Survey([]string{p})
	if err != nil {
		t.Fatalf("Survey: %v", err)
	}
	if len(stories) != 1 || stories[0].Title != "<Untitled>" {
		t.Errorf("stories = %+v", stories)
	}
	if len(authors) != 0 {
		t.Errorf("authors = %+v, want none", authors)
	}
}

func TestParagraphCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"whitespace only", "  \n \n ", 0},
		{"single block", "one paragraph\nacross two lines", 1},
		{"blank line separated", "first.\n\nsecond.\n\n\nthird.", 3},
		{"blank line with spaces", "first.\n  \nsecond.", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := paragraphCount(tt.text); got != tt.want {
				t.Errorf("paragraphCount(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestAuthorCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authors.csv")
	in := []AuthorStats{
		{Author: "Oscar Wilde", Stories: 2, BodyWords: 20, BodyChars: 120, BodyTokens: 30},
		{Author: "O. Henry", Stories: 1, BodyWords: 9, BodyChars: 48, BodyTokens: 12},
	}
	if err := WriteAuthorCSV(path, in); err != nil {
		t.Fatalf("WriteAuthorCSV: %v", err)
	}
	out, err := ReadAuthorCSV(path)
	if err != nil {
		t.Fatalf("ReadAuthorCSV: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d rows, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("row %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestWriteStoryCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stories.csv")
	stats := []StoryStats{{
		Path:    "corpora/wilde/happy_prince.json",
		StoryID: "the happy prince::oscar wilde",
		Title:   "The Happy Prince",
		Authors: []string{"Oscar Wilde"},
	}}
	if err := WriteStoryCSV(path, stats); err != nil {
		t.Fatalf("WriteStoryCSV: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{"path,story_id,title", "The Happy Prince", "Oscar Wilde"} {
		if !strings.Contains(content, want) {
			t.Errorf("report missing %q:\n%s", want, content)
		}
	}
}
