package llm

import (
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		err          APIError
		category     string
		canRetry     bool
		needsSmaller bool
		abortBatch   bool
		action       string
	}{
		{
			name:       "insufficient quota code",
			err:        APIError{Status: 429, Code: "insufficient_quota", Message: "You exceeded your current quota"},
			category:   CategoryQuotaExceeded,
			abortBatch: true,
			action:     ActionStopFixBilling,
		},
		{
			name:       "payment required status",
			err:        APIError{Status: 402, Message: "payment required"},
			category:   CategoryQuotaExceeded,
			abortBatch: true,
			action:     ActionStopFixBilling,
		},
		{
			name:     "plain rate limit",
			err:      APIError{Status: 429, Code: "rate_limit_exceeded", Message: "Rate limit reached for requests"},
			category: CategoryRateLimit,
			canRetry: true,
			action:   ActionRetryWithBackoff,
		},
		{
			name:         "tokens per minute limit",
			err:          APIError{Status: 429, Code: "rate_limit_exceeded", Message: "Rate limit reached: 30000 tokens per min"},
			category:     CategoryTPMLimit,
			canRetry:     true,
			needsSmaller: true,
			action:       ActionChunkOrQueue,
		},
		{
			name:         "context length exceeded",
			err:          APIError{Status: 400, Code: "context_length_exceeded", Message: "This model's maximum context length is 128000 tokens"},
			category:     CategoryContextLength,
			needsSmaller: true,
			action:       ActionShortenInput,
		},
		{
			name:       "bad api key",
			err:        APIError{Status: 401, Message: "Incorrect API key provided"},
			category:   CategoryAuth,
			abortBatch: true,
			action:     ActionFixCredentials,
		},
		{
			name:     "server error",
			err:      APIError{Status: 503, Message: "The server is overloaded"},
			category: CategoryServer,
			canRetry: true,
			action:   ActionRetryWithBackoff,
		},
		{
			name:     "unrecognized",
			err:      APIError{Status: 400, Message: "something odd happened"},
			category: CategoryUnknown,
			action:   ActionInspect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.err
			Classify(&err)
			if err.Category != tt.category {
				t.Errorf("Category = %q, want %q", err.Category, tt.category)
			}
			if err.CanRetry != tt.canRetry {
				t.Errorf("CanRetry = %v, want %v", err.CanRetry, tt.canRetry)
			}
			if err.NeedsSmallerRequest != tt.needsSmaller {
				t.Errorf("NeedsSmallerRequest = %v, want %v", err.NeedsSmallerRequest, tt.needsSmaller)
			}
			if err.ShouldAbortBatch != tt.abortBatch {
				t.Errorf("ShouldAbortBatch = %v, want %v", err.ShouldAbortBatch, tt.abortBatch)
			}
			if err.SuggestedAction != tt.action {
				t.Errorf("SuggestedAction = %q, want %q", err.SuggestedAction, tt.action)
			}
		})
	}
}

func TestParseAPIErrorEnvelope(t *testing.T) {
	body := []byte(`{"error": {"message": "Rate limit reached for requests", "type": "requests", "code": "rate_limit_exceeded"}}`)
	apiErr := ParseAPIError(429, body)
	if apiErr == nil {
		t.Fatal("expected an error")
	}
	if apiErr.Code != "rate_limit_exceeded" {
		t.Errorf("Code = %q, want rate_limit_exceeded", apiErr.Code)
	}
	if apiErr.Category != CategoryRateLimit {
		t.Errorf("Category = %q, want %q", apiErr.Category, CategoryRateLimit)
	}
	if !apiErr.CanRetry {
		t.Error("expected CanRetry")
	}
}

func TestParseAPIErrorPlainBody(t *testing.T) {
	apiErr := ParseAPIError(502, []byte("bad gateway"))
	if apiErr == nil {
		t.Fatal("expected an error")
	}
	if apiErr.Message != "bad gateway" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Category != CategoryServer {
		t.Errorf("Category = %q, want %q", apiErr.Category, CategoryServer)
	}
}
