// Package corpus assembles the domain packages into runnable pipeline
// plans: gathering raw stories, analyzing a single story with a model,
// and surveying a whole corpus.
package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/storycorpus/storycorpus/internal/chunk"
	"github.com/storycorpus/storycorpus/internal/gather"
	"github.com/storycorpus/storycorpus/internal/llm"
	"github.com/storycorpus/storycorpus/internal/pipeline"
	"github.com/storycorpus/storycorpus/internal/story"
	"github.com/storycorpus/storycorpus/internal/survey"
)

// Extractor produces a structured extraction from a story text.
// *llm.JSONExtractor satisfies it; tests substitute fakes.
type Extractor interface {
	Extract(ctx context.Context, text string) *llm.ExtractionResult
}

// extractRetries is the retry budget for model calls, the one stage in
// the analysis plan that fails transiently.
const extractRetries = 2

// GatherPlan builds a one-stage plan that downloads and extracts every
// story of the given corpus. It expects "force" in the initial values
// and produces "gathered", a map of story stem to file path.
func GatherPlan(ctx context.Context, g *gather.Gatherer, extractors []gather.Extractor) []pipeline.Stage {
	return []pipeline.Stage{
		{
			Name:    "GatherCorpus",
			Inputs:  []string{"force"},
			Outputs: []string{"gathered"},
			Processor: func(args ...any) (any, error) {
				force, ok := args[0].(bool)
				if !ok {
					return nil, fmt.Errorf("force must be a bool, got %T", args[0])
				}
				return g.Gather(ctx, extractors, force)
			},
		},
	}
}

// AnalysisPlan builds the plan that turns one story file into a
// structured extraction: load the story, chunk its body, run the model
// over the full text. It expects "story_path" in the initial values.
func AnalysisPlan(ctx context.Context, ex Extractor, opts chunk.Options) []pipeline.Stage {
	return []pipeline.Stage{
		{
			Name:    "LoadStory",
			Inputs:  []string{"story_path"},
			Outputs: []string{"story_name", "story_text"},
			Processor: func(args ...any) (any, error) {
				path, ok := args[0].(string)
				if !ok {
					return nil, fmt.Errorf("story_path must be a string, got %T", args[0])
				}
				st, err := story.LoadJSON(path)
				if err != nil {
					return nil, err
				}
				return []any{st.Name, st.Body}, nil
			},
		},
		{
			Name:    "ChunkStory",
			Inputs:  []string{"story_text"},
			Outputs: []string{"chunks"},
			Processor: func(args ...any) (any, error) {
				text, ok := args[0].(string)
				if !ok {
					return nil, fmt.Errorf("story_text must be a string, got %T", args[0])
				}
				return chunk.Split(text, opts)
			},
		},
		{
			Name:    "ExtractStructure",
			Inputs:  []string{"story_text"},
			Outputs: []string{"extraction"},
			Retries: extractRetries,
			Processor: func(args ...any) (any, error) {
				text, ok := args[0].(string)
				if !ok {
					return nil, fmt.Errorf("story_text must be a string, got %T", args[0])
				}
				result := ex.Extract(ctx, text)
				if result.APIError != nil {
					return nil, result.APIError
				}
				if result.ExtractionError != "" {
					return nil, fmt.Errorf("extraction failed: %s", result.ExtractionError)
				}
				return result, nil
			},
		},
	}
}

// SurveyPlan builds the plan that walks a corpus and writes CSV
// reports. It expects "corpus_root" and "report_dir" in the initial
// values and produces "story_stats", "author_stats", and
// "report_paths".
func SurveyPlan(model string, log *slog.Logger) []pipeline.Stage {
	surveyor := survey.NewSurveyor(model, log)
	return []pipeline.Stage{
		{
			Name:    "FindStories",
			Inputs:  []string{"corpus_root"},
			Outputs: []string{"story_paths"},
			Processor: func(args ...any) (any, error) {
				root, ok := args[0].(string)
				if !ok {
					return nil, fmt.Errorf("corpus_root must be a string, got %T", args[0])
				}
				return survey.FindStories(root, survey.FindOptions{})
			},
		},
		{
			Name:    "SurveyStories",
			Inputs:  []string{"story_paths"},
			Outputs: []string{"story_stats", "author_stats"},
			Processor: func(args ...any) (any, error) {
				paths, ok := args[0].([]string)
				if !ok {
					return nil, fmt.Errorf("story_paths must be []string, got %T", args[0])
				}
				stories, authors, err := surveyor.Survey(paths)
				if err != nil {
					return nil, err
				}
				return []any{stories, authors}, nil
			},
		},
		{
			Name:    "WriteReports",
			Inputs:  []string{"story_stats", "author_stats", "report_dir"},
			Outputs: []string{"report_paths"},
			Processor: func(args ...any) (any, error) {
				stories, ok := args[0].([]survey.StoryStats)
				if !ok {
					return nil, fmt.Errorf("story_stats must be []survey.StoryStats, got %T", args[0])
				}
				authors, ok := args[1].([]survey.AuthorStats)
				if !ok {
					return nil, fmt.Errorf("author_stats must be []survey.AuthorStats, got %T", args[1])
				}
				dir, ok := args[2].(string)
				if !ok {
					return nil, fmt.Errorf("report_dir must be a string, got %T", args[2])
				}
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, err
				}
				storyPath := filepath.Join(dir, "story_stats.csv")
				authorPath := filepath.Join(dir, "author_stats.csv")
				if err := survey.WriteStoryCSV(storyPath, stories); err != nil {
					return nil, err
				}
				if err := survey.WriteAuthorCSV(authorPath, authors); err != nil {
					return nil, err
				}
				return []string{storyPath, authorPath}, nil
			},
		},
	}
}
