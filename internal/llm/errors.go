package llm

import (
	"errors"
	"strings"
)

// ErrFatalAPI marks API errors that retrying will not fix (billing, auth).
var ErrFatalAPI = errors.New("fatal API error")

// ErrRateLimited marks 429-style rate-limit responses. The engine surfaces
// these to the transport layer so the platform can back off.
var ErrRateLimited = errors.New("rate limited")

// fatalPatterns are substrings of provider error messages that indicate a
// non-retryable account or auth problem.
var fatalPatterns = []string{
	"credit balance",
	"quota exceeded",
	"billing",
	"invalid api key",
	"authentication failed",
	"unauthorized",
	"401",
	"403",
}

var rateLimitPatterns = []string{
	"rate limit",
	"too many requests",
	"429",
}

// isRateLimitError reports whether err looks like a provider 429.
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range rateLimitPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// isFatalAPIError reports whether err is a non-retryable provider error.
func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range fatalPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// wrapFatalError tags rate-limit and fatal provider errors with their
// sentinels; other errors pass through unchanged.
func wrapFatalError(err error) error {
	if err == nil {
		return nil
	}
	if isRateLimitError(err) {
		return errors.Join(ErrRateLimited, err)
	}
	if isFatalAPIError(err) {
		return errors.Join(ErrFatalAPI, err)
	}
	return err
}
