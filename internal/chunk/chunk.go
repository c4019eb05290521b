// Package chunk splits long story texts into token-bounded pieces with
// offset metadata, so oversized inputs can be fed to a model window by
// window.
package chunk

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Chunk is one token-bounded slice of a story.
type Chunk struct {
	Index      int    `json:"index"`
	Text       string `json:"text"`
	StartToken int    `json:"start_token"`
	StartChar  int    `json:"start_char"`
}

// Options controls how a text is split.
type Options struct {
	// Model selects the tokenizer encoding.
	Model string
	// MaxTokens is the token budget per chunk.
	MaxTokens int
	// OverlapTokens is how many tokens consecutive chunks share. Zero
	// disables overlap.
	OverlapTokens int
	// EndTokenLimit, if positive, truncates the token stream before
	// chunking.
	EndTokenLimit int
	// MaxChunks, if positive, caps how many chunks are produced.
	MaxChunks int
}

// DefaultOptions matches a comfortable budget for gpt-4o class models.
func DefaultOptions() Options {
	return Options{
		Model:     "gpt-4o",
		MaxTokens: 6000,
	}
}

var (
	codecMu    sync.RWMutex
	codecCache = map[string]tokenizer.Codec{}
)

// codecFor resolves a tokenizer codec for a model name, falling back
// to cl100k_base for models the tokenizer does not know.
func codecFor(model string) (tokenizer.Codec, error) {
	codecMu.RLock()
	if c, ok := codecCache[model]; ok {
		codecMu.RUnlock()
		return c, nil
	}
	codecMu.RUnlock()

	codec, err := tokenizer.ForModel(tokenizer.Model(model))
	if err != nil {
		codec, err = tokenizer.Get(tokenizer.Cl100kBase)
		if err != nil {
			return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
		}
	}

	codecMu.Lock()
	codecCache[model] = codec
	codecMu.Unlock()
	return codec, nil
}

// CountTokens counts the tokens in text under the given model's
// encoding.
func CountTokens(text, model string) (int, error) {
	codec, err := codecFor(model)
	if err != nil {
		return 0, err
	}
	n, err := codec.Count(text)
	if err != nil {
		return 0, fmt.Errorf("failed to count tokens: %w", err)
	}
	return n, nil
}

// Split breaks text into chunks of at most opts.MaxTokens tokens each,
// recording token and character offsets back into the original text.
func Split(text string, opts Options) ([]Chunk, error) {
	if opts.Model == "" {
		opts.Model = DefaultOptions().Model
	}
	if opts.MaxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive, got %d", opts.MaxTokens)
	}
	if opts.OverlapTokens < 0 || opts.OverlapTokens >= opts.MaxTokens {
		return nil, fmt.Errorf("overlap tokens must be in [0, max tokens), got %d", opts.OverlapTokens)
	}

	codec, err := codecFor(opts.Model)
	if err != nil {
		return nil, err
	}

	ids, _, err := codec.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("failed to encode text: %w", err)
	}
	if opts.EndTokenLimit > 0 && len(ids) > opts.EndTokenLimit {
		ids = ids[:opts.EndTokenLimit]
	}

	step := opts.MaxTokens - opts.OverlapTokens

	var chunks []Chunk
	for current := 0; current < len(ids); current += step {
		if opts.MaxChunks > 0 && len(chunks) >= opts.MaxChunks {
			break
		}

		start := current
		if len(chunks) > 0 && opts.OverlapTokens > 0 {
			start = max(current-opts.OverlapTokens, 0)
		}
		end := min(current+opts.MaxTokens, len(ids))

		chunkText, err := codec.Decode(ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to decode chunk: %w", err)
		}
		prefix, err := codec.Decode(ids[:start])
		if err != nil {
			return nil, fmt.Errorf("failed to decode prefix: %w", err)
		}

		chunks = append(chunks, Chunk{
			Index:      len(chunks),
			Text:       chunkText,
			StartToken: start,
			StartChar:  len(prefix),
		})
	}

	return chunks, nil
}

// Summarize renders a short human-readable report of each chunk,
// showing the first and last 100 characters of long chunks.
func Summarize(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		fmt.Fprintf(&b, "Chunk %d (%d chars, starts at char %d):\n", c.Index, len(c.Text), c.StartChar)
		if len(c.Text) > 200 {
			b.WriteString(c.Text[:100] + " ... " + c.Text[len(c.Text)-100:])
		} else {
			b.WriteString(c.Text)
		}
		b.WriteString("\n\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
