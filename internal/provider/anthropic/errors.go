package anthropic

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/internal/retry"
)

// wrapError classifies an Anthropic SDK error.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return retry.ClassifyTransport(err)
	}

	code := apiErr.StatusCode
	msg := err.Error()
	// 529 overloaded_error falls in the 5xx range and is classified upstream.
	kind := retry.ClassifyStatus(code)
	if kind == promptcraft.KindRateLimit {
		return promptcraft.NewRateLimitError(msg, code, parseRetryAfter(apiErr.Response), err)
	}
	return promptcraft.NewError(kind, msg, code, err)
}

// parseRetryAfter extracts the Retry-After duration in seconds from an HTTP response.
func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return 0
}
