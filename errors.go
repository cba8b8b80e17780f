package promptcraft

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyInput is returned when a required input is empty.
var ErrEmptyInput = errors.New("empty input")

// ErrorCategory classifies errors by how they should be handled.
type ErrorCategory string

const (
	// ErrorTransient indicates the error is temporary and the operation can be retried.
	// Examples: rate limits, temporary network issues, server overload.
	ErrorTransient ErrorCategory = "transient"

	// ErrorPermanent indicates the error is not recoverable through retry.
	// Examples: invalid API key, insufficient permissions, malformed responses.
	ErrorPermanent ErrorCategory = "permanent"

	// ErrorUserInput indicates the user provided input that must be corrected.
	// Examples: unsupported image type, empty prompt, content policy violation.
	ErrorUserInput ErrorCategory = "user_input"
)

// ErrorKind identifies what went wrong when talking to the generative-AI service.
// Callers switch on the kind instead of matching message text.
type ErrorKind string

const (
	KindUnknown           ErrorKind = "unknown"
	KindInvalidKey        ErrorKind = "invalid_key"
	KindRateLimit         ErrorKind = "rate_limit"
	KindSafetyBlock       ErrorKind = "safety_block"
	KindRecitation        ErrorKind = "recitation"
	KindTruncated         ErrorKind = "truncated"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindNoImage           ErrorKind = "no_image"
	KindInvalidInput      ErrorKind = "invalid_input"
	KindNetwork           ErrorKind = "network"
	KindUpstream          ErrorKind = "upstream"
)

// Category returns the handling category for the kind.
func (k ErrorKind) Category() ErrorCategory {
	switch k {
	case KindRateLimit, KindNetwork, KindUpstream:
		return ErrorTransient
	case KindSafetyBlock, KindRecitation, KindTruncated, KindNoImage, KindInvalidInput:
		return ErrorUserInput
	default:
		return ErrorPermanent
	}
}

// ParseErrorKind converts a wire string back into an ErrorKind.
// Unrecognized values map to KindUnknown.
func ParseErrorKind(s string) ErrorKind {
	switch k := ErrorKind(s); k {
	case KindInvalidKey, KindRateLimit, KindSafetyBlock, KindRecitation, KindTruncated,
		KindMalformedResponse, KindNoImage, KindInvalidInput, KindNetwork, KindUpstream:
		return k
	default:
		return KindUnknown
	}
}

// CategorizedError is an error that provides information about how it should be handled.
type CategorizedError interface {
	error
	Category() ErrorCategory
	Retryable() bool           // convenience: returns true if Category == ErrorTransient
	StatusCode() int           // HTTP status code if applicable, 0 otherwise
	RetryAfter() time.Duration // suggested retry delay from server, 0 if not available
}

// Error is a classified service error.
type Error struct {
	Kind       ErrorKind
	Msg        string
	Code       int           // HTTP status code, 0 if not applicable
	RetryDelay time.Duration // server-suggested delay, 0 if not available
	Cause      error

	// Categories lists the safety categories that blocked the request,
	// with the HARM_CATEGORY_ prefix removed.
	Categories []string

	// Explanation holds any text the model returned in place of an image.
	Explanation string
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Category returns the error category derived from the kind.
func (e *Error) Category() ErrorCategory {
	return e.Kind.Category()
}

// Retryable returns true if the error is transient and can be retried.
func (e *Error) Retryable() bool {
	return e.Category() == ErrorTransient
}

// StatusCode returns the HTTP status code, or 0 if not applicable.
func (e *Error) StatusCode() int {
	return e.Code
}

// RetryAfter returns the suggested retry delay, or 0 if not available.
func (e *Error) RetryAfter() time.Duration {
	return e.RetryDelay
}

// NewError creates a classified error.
func NewError(kind ErrorKind, msg string, statusCode int, cause error) *Error {
	return &Error{
		Kind:  kind,
		Msg:   msg,
		Code:  statusCode,
		Cause: cause,
	}
}

// NewRateLimitError creates a rate limit error with a suggested retry delay.
func NewRateLimitError(msg string, statusCode int, retryAfter time.Duration, cause error) *Error {
	return &Error{
		Kind:       KindRateLimit,
		Msg:        msg,
		Code:       statusCode,
		RetryDelay: retryAfter,
		Cause:      cause,
	}
}

// NewSafetyError creates an error for a request blocked by the safety filter.
func NewSafetyError(categories []string) *Error {
	return &Error{
		Kind:       KindSafetyBlock,
		Msg:        "request blocked by safety filter",
		Categories: categories,
	}
}

// NewNoImageError creates an error for an image call that returned no image data.
func NewNoImageError(explanation string) *Error {
	return &Error{
		Kind:        KindNoImage,
		Msg:         "no image returned",
		Explanation: explanation,
	}
}

// KindOf returns the kind of a classified error, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsTransient returns true if the error is categorized as transient.
func IsTransient(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorTransient
	}
	return false
}

// IsPermanent returns true if the error is categorized as permanent.
func IsPermanent(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorPermanent
	}
	return false
}

// IsUserInput returns true if the error is categorized as user input error.
func IsUserInput(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorUserInput
	}
	return false
}

// IsInvalidKey reports whether the error means the API key was rejected.
func IsInvalidKey(err error) bool {
	return KindOf(err) == KindInvalidKey
}

// StatusCodeOf returns the HTTP status code from a categorized error, or 0.
func StatusCodeOf(err error) int {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.StatusCode()
	}
	return 0
}

// RetryAfterOf returns the retry delay from a categorized error, or 0.
func RetryAfterOf(err error) time.Duration {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.RetryAfter()
	}
	return 0
}

// UserMessage renders an error as text suitable for an error banner.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Kind {
	case KindInvalidKey:
		return "Your API key is invalid or lacks permissions. Please check your key and try again."
	case KindRateLimit:
		if e.RetryDelay > 0 {
			return fmt.Sprintf("You have exceeded your API quota. Please wait %s and try again.", e.RetryDelay.Round(time.Second))
		}
		return "You have exceeded your API quota. Please wait a moment and try again."
	case KindSafetyBlock:
		cats := "unspecified safety concerns"
		if len(e.Categories) > 0 {
			cats = strings.Join(e.Categories, ", ")
		}
		return fmt.Sprintf("Your request was blocked for safety reasons related to: %s. Please adjust your input.", cats)
	case KindRecitation:
		return "The response was blocked because it contained content that was too similar to a source. Please try a different prompt."
	case KindTruncated:
		return "The response was cut off because it reached the maximum length. Try a more concise prompt."
	case KindMalformedResponse:
		return "The AI returned a response that was not in the expected format."
	case KindNoImage:
		if e.Explanation != "" {
			return fmt.Sprintf("The model did not return an image. It responded with: %q", e.Explanation)
		}
		return "No image data was found in the API response. The response may have been blocked or empty."
	case KindNetwork:
		return "A network error occurred. Please check your internet connection and try again."
	case KindUpstream:
		return "The AI service is temporarily unavailable. Please try again."
	default:
		return e.Msg
	}
}

// ImageError represents an error while reading or decoding an image.
type ImageError struct {
	Op     string // "read", "decode" or "type"
	Source string // file path or "base64"
	Err    error
}

// Error returns a formatted error message describing the image failure.
func (e *ImageError) Error() string {
	return fmt.Sprintf("image %s error for %s: %v", e.Op, e.Source, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ImageError) Unwrap() error {
	return e.Err
}
