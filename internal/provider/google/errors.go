package google

import (
	"errors"
	"strings"
	"time"

	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/internal/retry"
	"google.golang.org/genai"
)

// WrapError classifies a Google GenAI error.
// Errors that are not API errors are classified as network failures when
// they look like one and returned unchanged otherwise.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return retry.ClassifyTransport(err)
	}

	msg := apiErr.Message
	if msg == "" {
		msg = err.Error()
	}

	kind := categorizeAPIError(apiErr)
	if kind == promptcraft.KindRateLimit {
		return promptcraft.NewRateLimitError(msg, apiErr.Code, retryDelay(apiErr.Details), err)
	}
	return promptcraft.NewError(kind, msg, apiErr.Code, err)
}

// categorizeAPIError determines the error kind from an API error.
// The Gemini API reports a bad key as 400 INVALID_ARGUMENT with an
// API_KEY_INVALID reason, so the details are checked before the code.
func categorizeAPIError(apiErr genai.APIError) promptcraft.ErrorKind {
	if hasReason(apiErr.Details, "API_KEY_INVALID") || strings.EqualFold(apiErr.Status, "PERMISSION_DENIED") ||
		strings.EqualFold(apiErr.Status, "UNAUTHENTICATED") {
		return promptcraft.KindInvalidKey
	}
	if strings.EqualFold(apiErr.Status, "RESOURCE_EXHAUSTED") {
		return promptcraft.KindRateLimit
	}
	if apiErr.Code == 400 && strings.Contains(strings.ToLower(apiErr.Message), "api key not valid") {
		return promptcraft.KindInvalidKey
	}
	return retry.ClassifyStatus(apiErr.Code)
}

// hasReason reports whether an ErrorInfo detail carries the given reason.
func hasReason(details []map[string]any, reason string) bool {
	for _, d := range details {
		if r, ok := d["reason"].(string); ok && r == reason {
			return true
		}
	}
	return false
}

// retryDelay extracts the RetryInfo delay ("31s") from error details.
func retryDelay(details []map[string]any) time.Duration {
	for _, d := range details {
		typ, _ := d["@type"].(string)
		if !strings.HasSuffix(typ, "RetryInfo") {
			continue
		}
		if s, ok := d["retryDelay"].(string); ok {
			if delay, err := time.ParseDuration(s); err == nil {
				return delay
			}
		}
	}
	return 0
}
