// Command storycorpus gathers, inspects, analyzes, and surveys a corpus
// of public-domain stories.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/storycorpus/storycorpus/internal/chunk"
	"github.com/storycorpus/storycorpus/internal/config"
	"github.com/storycorpus/storycorpus/internal/corpus"
	"github.com/storycorpus/storycorpus/internal/fetch"
	"github.com/storycorpus/storycorpus/internal/gather"
	"github.com/storycorpus/storycorpus/internal/gutenberg"
	"github.com/storycorpus/storycorpus/internal/llm"
	"github.com/storycorpus/storycorpus/internal/pipeline"
	"github.com/storycorpus/storycorpus/internal/story"
	"github.com/storycorpus/storycorpus/internal/telemetry"
)

const usageMessage = `Usage: storycorpus <command> [<args>]
Commands:
    help      Display this help message.
    info      Describe the story corpus toolkit.
    gather    Download and extract corpus stories to local JSON files.
    inspect   Pretty-print one or more story JSON files.
    analyze   Segment a story with a language model and print the result.
    survey    Compute corpus statistics and write CSV reports.
    index     Download Gutenberg books and build the local metadata index.
    advise    Query the corpus for advice.
`

const infoMessage = "storycorpus is a research toolkit for building and analyzing " +
	"corpora of public-domain stories."

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageMessage)
		os.Exit(1)
	}

	shutdown, err := telemetry.Init(logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	ctx, span := telemetry.StartCommand(context.Background(), os.Args[1])
	status := dispatch(ctx, logger, os.Args[1], os.Args[2:])
	span.End()
	os.Exit(status)
}

func dispatch(ctx context.Context, logger *slog.Logger, command string, args []string) int {
	switch command {
	case "help":
		fmt.Print(usageMessage)
		return 0
	case "info":
		fmt.Println(infoMessage)
		return 0
	case "gather":
		return runGather(ctx, logger, args)
	case "inspect":
		return runInspect(args)
	case "analyze":
		return runAnalyze(ctx, logger, args)
	case "survey":
		return runSurvey(logger, args)
	case "index":
		return runIndex(ctx, logger, args)
	case "advise":
		fmt.Fprintln(os.Stderr, "Corpus advice is not yet implemented.")
		return 1
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n%s", command, usageMessage)
		return 1
	}
}

func loadConfig() (*config.Config, error) {
	path := os.Getenv("STORYCORPUS_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	return config.Load(path)
}

func runGather(ctx context.Context, logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("gather", flag.ExitOnError)
	force := fs.Bool("force", false, "re-download and overwrite existing stories")
	fs.Parse(args)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}

	names := fs.Args()
	if len(names) == 0 {
		names = gather.Names()
	}

	client := fetch.NewClient(
		fetch.WithUserAgent(cfg.HTTP.UserAgent),
		fetch.WithTimeout(cfg.HTTPTimeout()),
	)
	cache := fetch.NewResourceCache(cfg.CacheRoot, client)

	failed := 0
	for _, name := range names {
		spec, ok := gather.Corpora[name]
		if !ok {
			logger.Error("unknown corpus", "name", name)
			failed++
			continue
		}

		g := gather.New(name, gather.Config{
			Root:        cfg.CorpusRoot,
			Description: spec.Description,
			License:     spec.License,
			Cache:       cache,
			Logger:      logger,
		})

		runner := pipeline.NewRunner(
			corpus.GatherPlan(ctx, g, spec.Extractors),
			pipeline.WithLogger(pipelineLogger(logger)),
			pipeline.WithRetryDelay(cfg.RetryDelay()),
		)
		result := runner.Run(map[string]any{"force": *force})
		if !result.Success {
			for _, f := range result.Failures {
				logger.Error("gather failed", "corpus", name, "stage", f.Stage, "message", f.Message)
			}
			failed++
			continue
		}

		gathered := result.Values["gathered"].(map[string]string)
		logger.Info("corpus gathered", "corpus", name, "stories", len(gathered), "run_id", result.RunID)
	}

	if failed > 0 {
		return 1
	}
	return 0
}

func runInspect(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: storycorpus inspect <file1.json> [file2.json ...]")
		return 2
	}

	inspected, errors := 0, 0
	for _, path := range args {
		st, err := story.LoadJSON(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to inspect %s: %v\n", path, err)
			errors++
			continue
		}
		fmt.Println(st.Format())
		inspected++
	}

	fmt.Printf("Inspected %d files", inspected)
	if errors > 0 {
		fmt.Printf(", %d errors", errors)
	}
	fmt.Println(".")

	if errors > 0 {
		return 1
	}
	return 0
}

func runAnalyze(ctx context.Context, logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	maxTokens := fs.Int("max-tokens", 6000, "token budget per chunk")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: storycorpus analyze [-max-tokens n] <story.json>")
		return 2
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}
	if cfg.OpenAI.APIKey == "" {
		fmt.Fprintln(os.Stderr, "error: no OpenAI API key configured (set OPENAI_API_KEY)")
		return 1
	}

	client := llm.NewClient(cfg.OpenAI.APIKey, llm.WithBaseURL(cfg.OpenAI.BaseURL))
	extractor := llm.NewJSONExtractor(
		client,
		corpus.SegmentSystemPrompt,
		corpus.SegmentUserPromptTemplate,
		corpus.SegmentOutputKey,
		llm.WithModel(cfg.OpenAI.Model),
		llm.WithTemperature(cfg.OpenAI.Temperature),
	)

	opts := chunk.Options{Model: cfg.OpenAI.Model, MaxTokens: *maxTokens}
	runner := pipeline.NewRunner(
		corpus.AnalysisPlan(ctx, extractor, opts),
		pipeline.WithLogger(pipelineLogger(logger)),
		pipeline.WithRetryDelay(cfg.RetryDelay()),
	)

	result := runner.Run(map[string]any{"story_path": fs.Arg(0)})
	if !result.Success {
		for _, f := range result.Failures {
			logger.Error("analysis failed", "stage", f.Stage, "message", f.Message)
		}
		return 1
	}

	chunks := result.Values["chunks"].([]chunk.Chunk)
	fmt.Println(chunk.Summarize(chunks))

	extraction := result.Values["extraction"].(*llm.ExtractionResult)
	encoded, err := json.MarshalIndent(extraction.Extracted, "", "  ")
	if err != nil {
		logger.Error("failed to encode extraction", "error", err)
		return 1
	}
	fmt.Println(string(encoded))
	return 0
}

func runSurvey(logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("survey", flag.ExitOnError)
	out := fs.String("out", "reports", "directory for CSV reports")
	fs.Parse(args)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}

	root := cfg.CorpusRoot
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}

	runner := pipeline.NewRunner(
		corpus.SurveyPlan(cfg.OpenAI.Model, logger),
		pipeline.WithLogger(pipelineLogger(logger)),
		pipeline.WithRetryDelay(cfg.RetryDelay()),
	)
	result := runner.Run(map[string]any{
		"corpus_root": root,
		"report_dir":  *out,
	})
	if !result.Success {
		for _, f := range result.Failures {
			logger.Error("survey failed", "stage", f.Stage, "message", f.Message)
		}
		return 1
	}

	for _, path := range result.Values["report_paths"].([]string) {
		fmt.Println(filepath.Clean(path))
	}
	return 0
}

func runIndex(ctx context.Context, logger *slog.Logger, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: storycorpus index <bookID> [bookID ...]")
		return 2
	}
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: invalid book id %q\n", arg)
			return 2
		}
		ids = append(ids, id)
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}

	texts := gutenberg.NewTextStore(cfg.CacheRoot, gutenberg.WithTextUserAgent(cfg.HTTP.UserAgent))
	meta, err := gutenberg.OpenMetadata(filepath.Join(cfg.CacheRoot, "books.db"))
	if err != nil {
		logger.Error("failed to open metadata index", "error", err)
		return 1
	}
	defer meta.Close()

	indexed, err := gutenberg.NewIndexer(texts, meta, logger).Index(ctx, ids)
	if err != nil {
		logger.Error("indexing failed", "indexed", indexed, "error", err)
		return 1
	}
	fmt.Printf("Indexed %d books.\n", indexed)
	return 0
}

// pipelineLogger adapts slog to the pipeline's message callback.
func pipelineLogger(logger *slog.Logger) pipeline.Logger {
	return func(msg string) {
		logger.Info(msg)
	}
}
