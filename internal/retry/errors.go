package retry

import (
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/spetersoncode/promptcraft"
)

// IsTransient determines if an error is transient and should be retried.
// Classified promptcraft errors decide for themselves. Anything else falls
// back to network heuristics: timeouts, connection resets, temporary DNS
// failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce promptcraft.CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == promptcraft.ErrorTransient
	}

	return isTransientNetworkError(err)
}

// isTransientStatusCode checks if an HTTP status code indicates a transient error.
func isTransientStatusCode(code int) bool {
	return code == 429 || (code >= 500 && code < 600)
}

// isTransientNetworkError checks for network-level transient errors.
func isTransientNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && isTransientNetworkError(urlErr.Err) {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary
	}

	var syscallErr syscall.Errno
	if errors.As(err, &syscallErr) {
		switch syscallErr {
		case syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ETIMEDOUT:
			return true
		}
	}

	errMsg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection reset",
		"connection refused",
		"timeout",
		"temporary failure",
		"service unavailable",
		"bad gateway",
		"gateway timeout",
	} {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}

// ClassifyStatus maps an HTTP status code to an error kind.
func ClassifyStatus(code int) promptcraft.ErrorKind {
	switch {
	case code == 401 || code == 403:
		return promptcraft.KindInvalidKey
	case code == 429:
		return promptcraft.KindRateLimit
	case code == 400 || code == 404 || code == 413 || code == 422:
		return promptcraft.KindInvalidInput
	case isTransientStatusCode(code):
		return promptcraft.KindUpstream
	default:
		return promptcraft.KindUnknown
	}
}

// ClassifyTransport wraps a transport-level failure as a network error,
// leaving already classified errors untouched.
func ClassifyTransport(err error) error {
	if err == nil {
		return nil
	}
	var ce promptcraft.CategorizedError
	if errors.As(err, &ce) {
		return err
	}
	if isTransientNetworkError(err) {
		return promptcraft.NewError(promptcraft.KindNetwork, "network error", 0, err)
	}
	return err
}
