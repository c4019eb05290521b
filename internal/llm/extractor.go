package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// storyTextSlot is the placeholder the user prompt template must contain.
const storyTextSlot = "{story_text}"

// ExtractorOption configures a JSONExtractor.
type ExtractorOption func(*JSONExtractor)

// WithModel overrides the default model.
func WithModel(model string) ExtractorOption {
	return func(e *JSONExtractor) { e.model = model }
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) ExtractorOption {
	return func(e *JSONExtractor) { e.temperature = t }
}

// WithoutForcedJSON disables response_format json_object on requests.
func WithoutForcedJSON() ExtractorOption {
	return func(e *JSONExtractor) { e.forceJSON = false }
}

// JSONExtractor runs a fixed prompt pair against a chat model and pulls
// a single key out of the JSON object the model returns.
type JSONExtractor struct {
	client             *Client
	systemPrompt       string
	userPromptTemplate string
	outputKey          string
	model              string
	temperature        float64
	forceJSON          bool
}

// NewJSONExtractor builds an extractor. The user prompt template must
// reference {story_text}, which is substituted with the input text on
// every call.
func NewJSONExtractor(client *Client, systemPrompt, userPromptTemplate, outputKey string, opts ...ExtractorOption) *JSONExtractor {
	e := &JSONExtractor{
		client:             client,
		systemPrompt:       systemPrompt,
		userPromptTemplate: userPromptTemplate,
		outputKey:          outputKey,
		model:              "gpt-4o",
		temperature:        0.2,
		forceJSON:          true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractionResult carries everything a caller might want to inspect
// after a single extraction: the raw model output, the parsed object,
// the extracted value, and whichever error stopped the process.
type ExtractionResult struct {
	ID         string         `json:"id"`
	Model      string         `json:"model_name"`
	ResponseID string         `json:"response_id,omitempty"`
	Usage      *Usage         `json:"usage,omitempty"`
	RawOutput  string         `json:"raw_output"`
	Parsed     map[string]any `json:"parsed_output,omitempty"`
	Extracted  any            `json:"extracted_output,omitempty"`

	ParsingError    string    `json:"parsing_error,omitempty"`
	ExtractionError string    `json:"extraction_error,omitempty"`
	APIError        *APIError `json:"api_error,omitempty"`
}

// Ok reports whether the extraction produced a value.
func (r *ExtractionResult) Ok() bool {
	return r.APIError == nil && r.ExtractionError == "" && r.Extracted != nil
}

// BuildMessages renders the prompt pair for the given text without
// invoking the client.
func (e *JSONExtractor) BuildMessages(text string) []ChatCompletionMessage {
	return []ChatCompletionMessage{
		{Role: "system", Content: e.systemPrompt},
		{Role: "user", Content: strings.ReplaceAll(e.userPromptTemplate, storyTextSlot, text)},
	}
}

// Extract runs the prompt against the model and returns a result.
// API failures are surfaced on the result rather than as a Go error so
// batch drivers can consult the classification flags.
func (e *JSONExtractor) Extract(ctx context.Context, text string) *ExtractionResult {
	result := &ExtractionResult{ID: uuid.NewString(), Model: e.model}

	req := &ChatCompletionRequest{
		Model:       e.model,
		Messages:    e.BuildMessages(text),
		Temperature: &e.temperature,
	}
	if e.forceJSON {
		req.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if apiErr, ok := err.(*APIError); ok {
			result.APIError = apiErr
		} else {
			result.APIError = &APIError{Message: err.Error()}
			Classify(result.APIError)
		}
		result.ExtractionError = "api_error"
		return result
	}

	result.ResponseID = resp.ID
	result.Usage = &resp.Usage

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		result.APIError = &APIError{
			Code:            "empty_response",
			Type:            "client_or_server",
			Message:         "no choices/content returned by API",
			Category:        CategoryUnknown,
			CanRetry:        true,
			SuggestedAction: ActionRetryWithBackoff,
		}
		result.ExtractionError = "api_error"
		return result
	}
	result.RawOutput = resp.Choices[0].Message.Content

	parsed, err := ExtractJSON(result.RawOutput)
	if err != nil {
		result.ParsingError = err.Error()
		result.ExtractionError = "parsing_error"
		return result
	}
	result.Parsed = parsed

	extracted, ok := parsed[e.outputKey]
	if !ok || extracted == nil {
		result.ExtractionError = fmt.Sprintf("expected %q key in JSON response", e.outputKey)
		return result
	}
	result.Extracted = extracted
	return result
}

var fencedBlockRe = regexp.MustCompile("(?s)```(\\w*)\\n(.*?)```")

// ExtractJSON parses a JSON object from raw model output. Output that
// is not bare JSON is searched for a single fenced ```json code block.
func ExtractJSON(raw string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		return obj, nil
	}

	blocks := fencedBlockRe.FindAllStringSubmatch(raw, -1)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no JSON found in output")
	}
	if len(blocks) > 1 {
		return nil, fmt.Errorf("multiple code blocks found in output")
	}
	format, content := blocks[0][1], blocks[0][2]
	if format != "" && format != "json" {
		return nil, fmt.Errorf("expected JSON code block, got %q", format)
	}
	if err := json.Unmarshal([]byte(content), &obj); err != nil {
		return nil, fmt.Errorf("invalid JSON in code block: %w", err)
	}
	return obj, nil
}
