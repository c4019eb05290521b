package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Error categories assigned by Classify.
const (
	CategoryUnknown       = "unknown"
	CategoryQuotaExceeded = "quota_exceeded"
	CategoryRateLimit     = "rate_limit"
	CategoryTPMLimit      = "tpm_limit"
	CategoryContextLength = "context_length"
	CategoryAuth          = "auth"
	CategoryServer        = "server"
)

// Suggested actions attached to classified errors.
const (
	ActionInspect          = "inspect_and_decide"
	ActionStopFixBilling   = "stop_job_fix_billing"
	ActionRetryWithBackoff = "retry_with_backoff"
	ActionChunkOrQueue     = "chunk_or_queue"
	ActionShortenInput     = "shorten_input"
	ActionFixCredentials   = "fix_credentials"
)

// APIError is an upstream API failure normalized into actionable fields.
// Batch drivers consult the flags to decide whether to retry a single
// request, shrink it, or abort the whole run.
type APIError struct {
	Status  int
	Code    string
	Type    string
	Message string

	Category            string
	CanRetry            bool
	NeedsSmallerRequest bool
	ShouldAbortBatch    bool
	SuggestedAction     string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error (status %d, code %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// ParseAPIError builds a classified APIError from an error response body.
// Returns nil if the body carries no recognizable error envelope and
// no status was supplied.
func ParseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		apiErr.Code = env.Error.Code
		apiErr.Type = env.Error.Type
		apiErr.Message = env.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	if status == 0 && apiErr.Code == "" && apiErr.Message == "" {
		return nil
	}

	Classify(apiErr)
	return apiErr
}

// Classify fills the category, retry, and batch-control fields of err
// from its status, code, and message.
func Classify(err *APIError) {
	code := strings.ToLower(err.Code)
	message := strings.ToLower(err.Message)

	err.Category = CategoryUnknown
	err.CanRetry = false
	err.NeedsSmallerRequest = false
	err.ShouldAbortBatch = false
	err.SuggestedAction = ActionInspect

	switch {
	case strings.Contains(code, "insufficient_quota") || strings.Contains(message, "quota") || err.Status == 402:
		err.Category = CategoryQuotaExceeded
		err.ShouldAbortBatch = true
		err.SuggestedAction = ActionStopFixBilling

	case strings.Contains(code, "rate_limit_exceeded") || strings.Contains(message, "rate limit") || err.Status == 429:
		err.Category = CategoryRateLimit
		err.CanRetry = true
		err.SuggestedAction = ActionRetryWithBackoff
		// Tokens-per-minute variant usually needs chunking or pacing,
		// not just a plain retry.
		if strings.Contains(message, "tokens per min") || strings.Contains(message, "tpm") {
			err.Category = CategoryTPMLimit
			err.NeedsSmallerRequest = true
			err.SuggestedAction = ActionChunkOrQueue
		}

	case strings.Contains(code, "context_length_exceeded") || strings.Contains(message, "maximum context length"):
		err.Category = CategoryContextLength
		err.NeedsSmallerRequest = true
		err.SuggestedAction = ActionShortenInput

	case err.Status == 401 || strings.Contains(message, "api key") || strings.Contains(message, "authentication"):
		err.Category = CategoryAuth
		err.ShouldAbortBatch = true
		err.SuggestedAction = ActionFixCredentials

	case err.Status == 500 || err.Status == 502 || err.Status == 503 || err.Status == 504 || strings.Contains(message, "overloaded"):
		err.Category = CategoryServer
		err.CanRetry = true
		err.SuggestedAction = ActionRetryWithBackoff
	}
}
