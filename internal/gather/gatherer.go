package gather

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/storycorpus/storycorpus/internal/fetch"
	"github.com/storycorpus/storycorpus/internal/story"
)

const licenseFile = "LICENSE"

// Extractor describes one story to pull out of a downloaded page.
type Extractor struct {
	Title   string
	URL     string
	Heading string // heading text that opens the story's section
	File    string // filename stem; derived from Title when empty
	Author  string
	Year    int

	// Options override the default section-extraction tag sets for
	// corpora with unusual markup.
	Options SectionOptions
}

// Filename returns the file stem the story is saved under.
func (e Extractor) Filename() string {
	if e.File != "" {
		return e.File
	}
	return TitleToFilename(e.Title)
}

// Description is the human-readable story name used in the saved record.
func (e Extractor) Description() string {
	if e.Author != "" {
		return fmt.Sprintf("%s by %s", e.Title, e.Author)
	}
	return e.Title
}

// Config carries the shared collaborators a Gatherer needs.
type Config struct {
	Root        string // corpus root; stories land in <Root>/<name>/
	Description string
	License     string
	Cache       *fetch.ResourceCache
	Logger      *slog.Logger
}

// Gatherer writes one corpus directory: a LICENSE file plus one story JSON
// per extractor. Already-present stories are skipped unless forced.
type Gatherer struct {
	name        string
	root        string
	description string
	license     string
	cache       *fetch.ResourceCache
	logger      *slog.Logger
}

// New creates a gatherer for the named corpus.
func New(name string, cfg Config) *Gatherer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gatherer{
		name:        name,
		root:        cfg.Root,
		description: cfg.Description,
		license:     cfg.License,
		cache:       cfg.Cache,
		logger:      logger,
	}
}

// Name returns the corpus name.
func (g *Gatherer) Name() string { return g.name }

// Path returns the corpus directory.
func (g *Gatherer) Path() string { return filepath.Join(g.root, g.name) }

// ensure creates the corpus directory and LICENSE file, and reports
// whether the story file already exists.
func (g *Gatherer) ensure(stem string) (bool, string, error) {
	if err := os.MkdirAll(g.Path(), 0o755); err != nil {
		return false, "", fmt.Errorf("create corpus dir %s: %w", g.Path(), err)
	}

	licensePath := filepath.Join(g.Path(), licenseFile)
	if _, err := os.Stat(licensePath); os.IsNotExist(err) {
		text := g.license
		if text == "" {
			text = "No license provided."
		}
		if err := os.WriteFile(licensePath, []byte(text), 0o644); err != nil {
			return false, "", fmt.Errorf("write license: %w", err)
		}
	}

	storyPath := filepath.Join(g.Path(), stem+".json")
	_, err := os.Stat(storyPath)
	return err == nil, storyPath, nil
}

// Download fetches one extractor's page, carves out the story section and
// writes the story JSON. It returns the story file path.
func (g *Gatherer) Download(ctx context.Context, ex Extractor, force bool) (string, error) {
	exists, path, err := g.ensure(ex.Filename())
	if err != nil {
		return "", err
	}
	if exists && !force {
		g.logger.Info("story exists, skipping download", slog.String("path", path))
		return path, nil
	}

	contents, err := g.cache.Get(ctx, ex.URL, force)
	if err != nil {
		return "", fmt.Errorf("story %s: %w", ex.Title, err)
	}

	text, ok := SectionAfterHeading(contents, ex.Heading, ex.Options)
	if !ok || text == "" {
		return "", fmt.Errorf("no text found for %s given heading %q in %s", ex.Title, ex.Heading, ex.URL)
	}

	s := story.Story{
		Name: ex.Description(),
		Body: text,
		Metadata: map[string]any{
			"author": ex.Author,
			"year":   ex.Year,
			"url":    ex.URL,
			"name":   ex.Filename(),
		},
	}
	if err := s.SaveJSON(path); err != nil {
		return "", err
	}

	g.logger.Info("story saved", slog.String("path", path))
	return path, nil
}

// Gather downloads every extractor, failing on the first error. It returns
// the story file paths keyed by filename stem.
func (g *Gatherer) Gather(ctx context.Context, extractors []Extractor, force bool) (map[string]string, error) {
	downloads := make(map[string]string, len(extractors))
	for _, ex := range extractors {
		path, err := g.Download(ctx, ex, force)
		if err != nil {
			return downloads, err
		}
		downloads[ex.Filename()] = path
	}
	return downloads, nil
}
