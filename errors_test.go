package promptcraft

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind_Category(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want ErrorCategory
	}{
		{KindRateLimit, ErrorTransient},
		{KindNetwork, ErrorTransient},
		{KindUpstream, ErrorTransient},
		{KindSafetyBlock, ErrorUserInput},
		{KindRecitation, ErrorUserInput},
		{KindTruncated, ErrorUserInput},
		{KindNoImage, ErrorUserInput},
		{KindInvalidInput, ErrorUserInput},
		{KindInvalidKey, ErrorPermanent},
		{KindMalformedResponse, ErrorPermanent},
		{KindUnknown, ErrorPermanent},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Category())
		})
	}
}

func TestParseErrorKind(t *testing.T) {
	assert.Equal(t, KindRateLimit, ParseErrorKind("rate_limit"))
	assert.Equal(t, KindInvalidKey, ParseErrorKind("invalid_key"))
	assert.Equal(t, KindUnknown, ParseErrorKind("unknown"))
	assert.Equal(t, KindUnknown, ParseErrorKind("something_else"))
	assert.Equal(t, KindUnknown, ParseErrorKind(""))
}

func TestError_Wrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewError(KindNetwork, "request failed", 0, cause)

	assert.Equal(t, "request failed: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, err.Retryable())

	wrapped := fmt.Errorf("describe: %w", err)
	assert.Equal(t, KindNetwork, KindOf(wrapped))
	assert.True(t, IsTransient(wrapped))
	assert.False(t, IsPermanent(wrapped))
	assert.False(t, IsUserInput(wrapped))
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.Equal(t, 0, StatusCodeOf(errors.New("plain")))
	assert.Equal(t, time.Duration(0), RetryAfterOf(errors.New("plain")))
}

func TestRateLimitError(t *testing.T) {
	err := NewRateLimitError("quota exceeded", 429, 30*time.Second, nil)

	assert.Equal(t, 429, StatusCodeOf(err))
	assert.Equal(t, 30*time.Second, RetryAfterOf(err))
	assert.True(t, IsTransient(err))
	assert.Contains(t, UserMessage(err), "30s")
}

func TestIsInvalidKey(t *testing.T) {
	assert.True(t, IsInvalidKey(NewError(KindInvalidKey, "bad key", 401, nil)))
	assert.False(t, IsInvalidKey(NewError(KindRateLimit, "slow down", 429, nil)))
	assert.True(t, IsPermanent(NewError(KindInvalidKey, "bad key", 401, nil)))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("disk full"), "disk full"},
		{"invalid key", NewError(KindInvalidKey, "x", 401, nil), "API key is invalid"},
		{"rate limit", NewError(KindRateLimit, "x", 429, nil), "wait a moment"},
		{"safety", NewSafetyError([]string{"HARASSMENT", "DANGEROUS_CONTENT"}), "HARASSMENT, DANGEROUS_CONTENT"},
		{"safety without categories", NewSafetyError(nil), "unspecified safety concerns"},
		{"recitation", NewError(KindRecitation, "x", 0, nil), "too similar to a source"},
		{"truncated", NewError(KindTruncated, "x", 0, nil), "maximum length"},
		{"malformed", NewError(KindMalformedResponse, "x", 0, nil), "expected format"},
		{"no image explained", NewNoImageError("I cannot draw that"), `"I cannot draw that"`},
		{"no image", NewNoImageError(""), "No image data"},
		{"network", NewError(KindNetwork, "x", 0, nil), "network error"},
		{"upstream", NewError(KindUpstream, "x", 503, nil), "temporarily unavailable"},
		{"invalid input", NewError(KindInvalidInput, "a prompt is required", 0, nil), "a prompt is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := UserMessage(tt.err)
			if tt.contains == "" {
				assert.Empty(t, msg)
				return
			}
			assert.Contains(t, msg, tt.contains)
		})
	}
}

func TestImageError(t *testing.T) {
	err := &ImageError{Op: "read", Source: "cat.png", Err: ErrEmptyInput}

	assert.Equal(t, "image read error for cat.png: empty input", err.Error())
	assert.ErrorIs(t, err, ErrEmptyInput)
}
