package gather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/storycorpus/storycorpus/internal/fetch"
	"github.com/storycorpus/storycorpus/internal/story"
)

func testGatherer(t *testing.T, pageHTML string) (*Gatherer, *httptest.Server, *int) {
	t.Helper()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(pageHTML))
	}))
	t.Cleanup(srv.Close)

	cache := fetch.NewResourceCache(filepath.Join(t.TempDir(), "cache"), fetch.NewClient())
	g := New("test_corpus", Config{
		Root:    t.TempDir(),
		License: "Public domain.",
		Cache:   cache,
	})
	return g, srv, &hits
}

const gatherPage = `<html><body>
<h2>The Happy Prince.</h2>
<p>High above the city stood the statue.</p>
<h2>Another Story.</h2>
<p>Other text.</p>
</body></html>`

func TestGatherer_DownloadWritesStory(t *testing.T) {
	g, srv, _ := testGatherer(t, gatherPage)

	ex := Extractor{
		Title:   "The Happy Prince",
		URL:     srv.URL + "/page.html",
		Heading: "The Happy Prince.",
		Author:  "Wilde",
		Year:    1888,
	}
	path, err := g.Download(context.Background(), ex, false)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	s, err := story.LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}
	if s.Name != "The Happy Prince by Wilde" {
		t.Errorf("Name = %q, want description with author", s.Name)
	}
	if !strings.Contains(s.Body, "stood the statue") {
		t.Errorf("Body = %q, want extracted paragraph", s.Body)
	}
	if s.Author() != "Wilde" || s.Year() != 1888 {
		t.Errorf("metadata = %v, want author/year recorded", s.Metadata)
	}

	license := filepath.Join(g.Path(), "LICENSE")
	if _, err := os.Stat(license); err != nil {
		t.Errorf("LICENSE not written: %v", err)
	}
}

func TestGatherer_SkipsExistingStory(t *testing.T) {
	g, srv, hits := testGatherer(t, gatherPage)
	ex := Extractor{Title: "The Happy Prince", URL: srv.URL, Heading: "The Happy Prince."}
	ctx := context.Background()

	if _, err := g.Download(ctx, ex, false); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Download(ctx, ex, false); err != nil {
		t.Fatal(err)
	}
	if *hits != 1 {
		t.Errorf("server hits = %d, want 1 (existing story skipped)", *hits)
	}
}

func TestGatherer_MissingHeadingFails(t *testing.T) {
	g, srv, _ := testGatherer(t, gatherPage)
	ex := Extractor{Title: "Ghost Story", URL: srv.URL, Heading: "No Such Heading."}

	_, err := g.Download(context.Background(), ex, false)
	if err == nil {
		t.Fatal("Download() error = nil, want extraction failure")
	}
	if !strings.Contains(err.Error(), "no text found") {
		t.Errorf("error = %v, want extraction failure message", err)
	}
}

func TestGatherer_GatherAll(t *testing.T) {
	g, srv, _ := testGatherer(t, gatherPage)
	extractors := []Extractor{
		{Title: "The Happy Prince", URL: srv.URL, Heading: "The Happy Prince."},
		{Title: "Another Story", URL: srv.URL, Heading: "Another Story."},
	}

	downloads, err := g.Gather(context.Background(), extractors, false)
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(downloads) != 2 {
		t.Fatalf("downloads = %v, want 2 entries", downloads)
	}
	for stem, path := range downloads {
		if !strings.HasSuffix(path, stem+".json") {
			t.Errorf("downloads[%q] = %q, want matching json path", stem, path)
		}
	}
}

func TestRegistry_SpecsAreWellFormed(t *testing.T) {
	if len(Corpora) < 2 {
		t.Fatalf("registry has %d corpora, want at least 2", len(Corpora))
	}
	for name, spec := range Corpora {
		if spec.Name != name {
			t.Errorf("spec %q Name = %q, want key", name, spec.Name)
		}
		if len(spec.Extractors) == 0 {
			t.Errorf("spec %q has no extractors", name)
		}
		for _, ex := range spec.Extractors {
			if ex.URL == "" || ex.Heading == "" {
				t.Errorf("spec %q extractor %q missing url or heading", name, ex.Title)
			}
			if ex.Filename() == "" {
				t.Errorf("spec %q extractor %q has empty filename", name, ex.Title)
			}
		}
	}
}
