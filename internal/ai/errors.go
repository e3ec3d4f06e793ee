package ai

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// ErrorKind is the classification of a failed generative api call.
type ErrorKind string

const (
	KindRateLimited        ErrorKind = "rate_limited"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindOther              ErrorKind = "other"
)

var (
	ErrRateLimitExceeded  = errors.New("ai rate limit exceeded")
	ErrServiceUnavailable = errors.New("ai service unavailable")
	ErrMalformedResponse  = errors.New("ai response malformed")
	ErrConfiguration      = errors.New("ai configuration error")
	ErrUnknownFailure     = errors.New("ai call failed")
)

var (
	// "generate" or "moderate" must not count as a rate limit signature,
	// hence the word boundaries
	rateLimitSignature   = regexp.MustCompile(`\brate\b|\brate[-_ ]?limit|\bquota|\blimit`)
	unavailableSignature = regexp.MustCompile(`unavailable`)
)

// Classify maps an http status code and an error message to an ErrorKind.
// A status code of 0 means no http response was received.
func Classify(statusCode int, message string) ErrorKind {
	switch statusCode {
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusServiceUnavailable:
		return KindServiceUnavailable
	}

	msg := strings.ToLower(message)
	switch {
	case rateLimitSignature.MatchString(msg):
		return KindRateLimited
	case unavailableSignature.MatchString(msg):
		return KindServiceUnavailable
	default:
		return KindOther
	}
}

// ClassifyError classifies err, using the status code when err carries a *StatusError.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return Classify(statusErr.StatusCode, statusErr.Error())
	}
	return Classify(0, err.Error())
}

// KindError returns the sentinel error a given kind is surfaced as.
func KindError(kind ErrorKind) error {
	switch kind {
	case KindRateLimited:
		return ErrRateLimitExceeded
	case KindServiceUnavailable:
		return ErrServiceUnavailable
	default:
		return ErrUnknownFailure
	}
}

// StatusError is returned by the client for non 2xx api responses.
type StatusError struct {
	StatusCode int
	// Status is the api level status, e.g. RESOURCE_EXHAUSTED
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("ai api status %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("ai api status %d: %s", e.StatusCode, e.Message)
}

// ExhaustedError is returned when all attempts of a call failed.
// errors.Is matches it against the sentinel of its Kind.
type ExhaustedError struct {
	Kind     ErrorKind
	Attempts []Attempt
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("ai call exhausted after %d attempts [%s]: %s", len(e.Attempts), e.Kind, e.Err)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{KindError(e.Kind), e.Err}
}
