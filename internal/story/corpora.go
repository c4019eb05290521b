package story

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Corpora provides access to every corpus under a root directory. Each
// immediate subdirectory is one corpus; its stories are the *.json files
// directly inside it. Results are loaded once and cached.
type Corpora struct {
	root    string
	corpora map[string][]Story
}

// NewCorpora returns an accessor for the corpora under root. Nothing is
// read until Corpora or Stories is called.
func NewCorpora(root string) *Corpora {
	return &Corpora{root: root}
}

// Root returns the directory the corpora are read from.
func (c *Corpora) Root() string { return c.root }

// Corpora returns every corpus keyed by directory name.
func (c *Corpora) Corpora() (map[string][]Story, error) {
	if c.corpora != nil {
		return c.corpora, nil
	}
	loaded, err := loadCorpora(c.root)
	if err != nil {
		return nil, err
	}
	c.corpora = loaded
	return c.corpora, nil
}

// Stories flattens every corpus into a single slice, ordered by corpus name
// and then file order within the corpus.
func (c *Corpora) Stories() ([]Story, error) {
	corpora, err := c.Corpora()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(corpora))
	for name := range corpora {
		names = append(names, name)
	}
	sort.Strings(names)

	var stories []Story
	for _, name := range names {
		stories = append(stories, corpora[name]...)
	}
	return stories, nil
}

func loadCorpora(root string) (map[string][]Story, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read corpora root %s: %w", root, err)
	}

	corpora := make(map[string][]Story)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		stories, err := loadCorpus(filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, err
		}
		corpora[entry.Name()] = stories
	}
	return corpora, nil
}

func loadCorpus(dir string) ([]Story, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus %s: %w", dir, err)
	}
	sort.Strings(paths)

	stories := make([]Story, 0, len(paths))
	for _, path := range paths {
		s, err := LoadJSON(path)
		if err != nil {
			return nil, err
		}
		stories = append(stories, s)
	}
	return stories, nil
}
