package openai

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/openai/openai-go"
	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/internal/retry"
)

// wrapError classifies an OpenAI SDK error.
// It extracts status codes and Retry-After headers for retry handling.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return retry.ClassifyTransport(err)
	}

	code := apiErr.StatusCode
	msg := apiErr.Message
	if msg == "" {
		msg = err.Error()
	}

	kind := retry.ClassifyStatus(code)
	if apiErr.Code == "content_policy_violation" || apiErr.Code == "moderation_blocked" {
		kind = promptcraft.KindSafetyBlock
	}

	if kind == promptcraft.KindRateLimit {
		return promptcraft.NewRateLimitError(msg, code, parseRetryAfter(apiErr.Response), err)
	}
	if kind == promptcraft.KindSafetyBlock {
		safety := promptcraft.NewSafetyError(nil)
		safety.Code = code
		safety.Cause = err
		return safety
	}
	return promptcraft.NewError(kind, msg, code, err)
}

// parseRetryAfter extracts the Retry-After duration from an HTTP response.
// Returns 0 if the header is not present or cannot be parsed.
func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		delay := time.Until(t)
		if delay > 0 {
			return delay
		}
	}

	return 0
}
