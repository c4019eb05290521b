package corpus

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/storycorpus/storycorpus/internal/chunk"
	"github.com/storycorpus/storycorpus/internal/fetch"
	"github.com/storycorpus/storycorpus/internal/gather"
	"github.com/storycorpus/storycorpus/internal/llm"
	"github.com/storycorpus/storycorpus/internal/pipeline"
	"github.com/storycorpus/storycorpus/internal/story"
)

// fakeExtractor returns canned results, failing a set number of calls
// first.
type fakeExtractor struct {
	calls     int
	failFirst int
	result    *llm.ExtractionResult
}

func (f *fakeExtractor) Extract(ctx context.Context, text string) *llm.ExtractionResult {
	f.calls++
	if f.calls <= f.failFirst {
		return &llm.ExtractionResult{
			ExtractionError: "api_error",
			APIError: &llm.APIError{
				Status:   503,
				Message:  "overloaded",
				Category: llm.CategoryServer,
				CanRetry: true,
			},
		}
	}
	return f.result
}

func writeTestStory(t *testing.T, dir string) string {
	t.Helper()
	st := story.Story{
		Name:     "The Happy Prince",
		Body:     "High above the city, on a tall column, stood the statue of the Happy Prince.",
		Metadata: map[string]any{"author": "Oscar Wilde"},
	}
	path := filepath.Join(dir, "happy_prince.json")
	if err := st.SaveJSON(path); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	return path
}

func TestAnalysisPlan(t *testing.T) {
	path := writeTestStory(t, t.TempDir())
	ex := &fakeExtractor{result: &llm.ExtractionResult{
		Extracted: []any{map[string]any{"name": "opening"}},
	}}

	stages := AnalysisPlan(context.Background(), ex, chunk.Options{Model: "gpt-4o", MaxTokens: 10})
	runner := pipeline.NewRunner(stages, pipeline.WithSleeper(pipeline.NopSleeper{}))

	result := runner.Run(map[string]any{"story_path": path})
	if !result.Success {
		t.Fatalf("run failed: %+v", result.Failures)
	}
	if result.Values["story_name"] != "The Happy Prince" {
		t.Errorf("story_name = %v", result.Values["story_name"])
	}
	chunks, ok := result.Values["chunks"].([]chunk.Chunk)
	if !ok || len(chunks) < 2 {
		t.Errorf("chunks = %v", result.Values["chunks"])
	}
	extraction, ok := result.Values["extraction"].(*llm.ExtractionResult)
	if !ok || extraction.Extracted == nil {
		t.Errorf("extraction = %v", result.Values["extraction"])
	}
}

func TestAnalysisPlanRetriesModelCalls(t *testing.T) {
	path := writeTestStory(t, t.TempDir())
	ex := &fakeExtractor{
		failFirst: 2,
		result:    &llm.ExtractionResult{Extracted: []any{"segment"}},
	}

	stages := AnalysisPlan(context.Background(), ex, chunk.Options{Model: "gpt-4o", MaxTokens: 100})
	runner := pipeline.NewRunner(stages, pipeline.WithSleeper(pipeline.NopSleeper{}))

	result := runner.Run(map[string]any{"story_path": path})
	if !result.Success {
		t.Fatalf("run failed despite retry budget: %+v", result.Failures)
	}
	if ex.calls != 3 {
		t.Errorf("extractor called %d times, want 3", ex.calls)
	}
}

func TestAnalysisPlanExhaustsRetries(t *testing.T) {
	path := writeTestStory(t, t.TempDir())
	ex := &fakeExtractor{failFirst: 10}

	stages := AnalysisPlan(context.Background(), ex, chunk.Options{Model: "gpt-4o", MaxTokens: 100})
	runner := pipeline.NewRunner(stages, pipeline.WithSleeper(pipeline.NopSleeper{}))

	result := runner.Run(map[string]any{"story_path": path})
	if result.Success {
		t.Fatal("expected failure")
	}
	if len(result.Failures) != 1 || result.Failures[0].Stage != "ExtractStructure" {
		t.Errorf("Failures = %+v", result.Failures)
	}
	if ex.calls != 3 {
		t.Errorf("extractor called %d times, want 3", ex.calls)
	}
	// Earlier stage output survives the failure.
	if _, ok := result.Values["chunks"]; !ok {
		t.Error("chunks missing from values")
	}
}

func TestAnalysisPlanMissingStory(t *testing.T) {
	stages := AnalysisPlan(context.Background(), &fakeExtractor{}, chunk.Options{Model: "gpt-4o", MaxTokens: 100})
	runner := pipeline.NewRunner(stages, pipeline.WithSleeper(pipeline.NopSleeper{}))

	result := runner.Run(map[string]any{"story_path": filepath.Join(t.TempDir(), "nope.json")})
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Failures[0].Stage != "LoadStory" {
		t.Errorf("failed stage = %s, want LoadStory", result.Failures[0].Stage)
	}
}

func TestSurveyPlan(t *testing.T) {
	root := t.TempDir()
	corpusDir := filepath.Join(root, "wilde")
	if err := os.MkdirAll(corpusDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeTestStory(t, corpusDir)
	reportDir := filepath.Join(t.TempDir(), "reports")

	runner := pipeline.NewRunner(SurveyPlan("gpt-4o", nil), pipeline.WithSleeper(pipeline.NopSleeper{}))
	result := runner.Run(map[string]any{
		"corpus_root": root,
		"report_dir":  reportDir,
	})
	if !result.Success {
		t.Fatalf("run failed: %+v", result.Failures)
	}

	paths, ok := result.Values["report_paths"].([]string)
	if !ok || len(paths) != 2 {
		t.Fatalf("report_paths = %v", result.Values["report_paths"])
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("report not written: %v", err)
		}
	}
}

func TestGatherPlan(t *testing.T) {
	page := `<html><body>
<h2>The Happy Prince.</h2>
<p>High above the city stood the statue.</p>
<h2>Next Story.</h2>
<p>Other text.</p>
</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	root := t.TempDir()
	cache := fetch.NewResourceCache(filepath.Join(root, "cache"), fetch.NewClient())
	g := gather.New("wilde", gather.Config{Root: root, Cache: cache})
	extractors := []gather.Extractor{{
		Title:   "The Happy Prince",
		URL:     srv.URL + "/pg902.html",
		Heading: "The Happy Prince.",
	}}

	runner := pipeline.NewRunner(GatherPlan(context.Background(), g, extractors))
	result := runner.Run(map[string]any{"force": false})
	if !result.Success {
		t.Fatalf("run failed: %+v", result.Failures)
	}

	gathered, ok := result.Values["gathered"].(map[string]string)
	if !ok || len(gathered) != 1 {
		t.Fatalf("gathered = %v", result.Values["gathered"])
	}
	for _, p := range gathered {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("story not written: %v", err)
		}
	}
}
