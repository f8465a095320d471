package gemini

import (
	"errors"
	"strings"
)

// FailureKind is the best-effort taxonomy of upstream errors. The provider
// exposes no structured error contract, so classification matches phrasing
// in the error text; this adapter is the one place to swap in a structured
// mapping if the provider ever offers codes.
type FailureKind int

const (
	// FailureGeneric is any error with no more specific classification.
	FailureGeneric FailureKind = iota
	// FailureRateLimited means provider quota/rate limits; retriable after
	// RetryAfterSeconds.
	FailureRateLimited
	// FailureBadCredentials means the API key is missing or invalid.
	FailureBadCredentials
	// FailureContentBlocked means the provider's safety filter rejected
	// the input; the user should edit their text.
	FailureContentBlocked
)

// RetryAfterSeconds is the backoff hint attached to rate-limit failures.
const RetryAfterSeconds = 120

var rateLimitPhrases = []string{
	"429",
	"quota",
	"rate limit",
	"Too Many Requests",
	"RESOURCE_EXHAUSTED",
	"circuit open",
}

var credentialPhrases = []string{
	"API key",
	"API_KEY",
}

var safetyPhrases = []string{
	"SAFETY",
	"blocked",
}

// Classify maps an upstream error to a failure kind.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureGeneric
	}
	if errors.Is(err, ErrNotConfigured) {
		return FailureBadCredentials
	}

	msg := err.Error()
	for _, phrase := range rateLimitPhrases {
		if strings.Contains(msg, phrase) {
			return FailureRateLimited
		}
	}
	for _, phrase := range credentialPhrases {
		if strings.Contains(msg, phrase) {
			return FailureBadCredentials
		}
	}
	for _, phrase := range safetyPhrases {
		if strings.Contains(msg, phrase) {
			return FailureContentBlocked
		}
	}
	return FailureGeneric
}
