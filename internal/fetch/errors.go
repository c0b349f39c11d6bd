// Package fetch retrieves plain-text list bodies over HTTP with bounded
// retry, exponential backoff, and rate-limit handling.
package fetch

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure.
type Kind int

const (
	// KindTransport marks a connection, DNS, or timeout failure.
	KindTransport Kind = iota
	// KindExhausted marks a retry budget spent without success.
	KindExhausted
	// KindEmptyPayload marks a 200 response whose body is blank.
	KindEmptyPayload
	// KindServer marks a 5xx response that outlived the retry budget.
	KindServer
	// KindHTTP marks a non-retryable HTTP status (4xx other than 429).
	KindHTTP
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindExhausted:
		return "exhausted"
	case KindEmptyPayload:
		return "empty_payload"
	case KindServer:
		return "server_error"
	case KindHTTP:
		return "http_error"
	default:
		return "unknown"
	}
}

// Error is the failure type surfaced by Fetcher.Fetch.
type Error struct {
	Kind   Kind
	Status int
	URL    string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("fetch %s: %s (status %d)", e.URL, e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a fetch Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == kind
}
