package fetch

import (
	"math"
	"net/http"
	"time"
)

// DefaultRetryAfter is used when a 429 response omits the Retry-After
// header.
const DefaultRetryAfter = 10 * time.Second

// Outcome captures the result of one request attempt: either a
// transport error, or a status code plus the details the policy needs.
type Outcome struct {
	// Err is the transport-level failure; nil when a response arrived.
	Err error
	// Status is the HTTP status code of the response.
	Status int
	// RetryAfter is the server-advertised delay from a 429 response;
	// zero when the header is absent or unparseable.
	RetryAfter time.Duration
	// EmptyBody reports whether a 200 body was blank after trimming.
	EmptyBody bool
}

// Action is the policy verdict for an attempt.
type Action int

const (
	// ActionSucceed accepts the response body.
	ActionSucceed Action = iota
	// ActionRetry sleeps Decision.Delay and tries again.
	ActionRetry
	// ActionFail gives up with Decision.Err.
	ActionFail
)

// Decision is the output of Policy.Decide.
type Decision struct {
	Action Action
	Delay  time.Duration
	Err    *Error
}

// Policy is the pure retry decision function. It never sleeps and never
// touches the network, so every branch is unit-testable.
//
// The attempt argument to Decide counts retries already performed; a
// retry is granted while that count stays below the relevant cap, and
// backoff delays grow as BackoffFactor raised to the next attempt
// number. A 429 delay is taken from the server verbatim, never from the
// backoff curve.
type Policy struct {
	// MaxRetries bounds retries for transport and 5xx outcomes.
	MaxRetries int
	// BackoffFactor is the exponential backoff base, in seconds.
	BackoffFactor float64
	// RateLimitRetryCap bounds 429 retries: 0 falls back to
	// MaxRetries, a negative value removes the cap.
	RateLimitRetryCap int
	// StrictEmptyPayload fails a blank 200 body instead of
	// returning it.
	StrictEmptyPayload bool
}

// Decide maps one attempt outcome and the number of retries so far to a
// verdict.
func (p Policy) Decide(url string, out Outcome, attempt int) Decision {
	if out.Err != nil {
		if attempt+1 >= p.MaxRetries {
			return Decision{Action: ActionFail, Err: &Error{
				Kind: KindExhausted,
				URL:  url,
				Err:  out.Err,
			}}
		}
		return Decision{Action: ActionRetry, Delay: p.backoff(attempt + 1)}
	}

	switch {
	case out.Status == http.StatusOK:
		if out.EmptyBody && p.StrictEmptyPayload {
			return Decision{Action: ActionFail, Err: &Error{
				Kind: KindEmptyPayload,
				URL:  url,
			}}
		}
		return Decision{Action: ActionSucceed}

	case out.Status == http.StatusTooManyRequests:
		if cap := p.rateLimitCap(); cap >= 0 && attempt+1 >= cap {
			return Decision{Action: ActionFail, Err: &Error{
				Kind:   KindExhausted,
				Status: out.Status,
				URL:    url,
			}}
		}
		delay := out.RetryAfter
		if delay <= 0 {
			delay = DefaultRetryAfter
		}
		return Decision{Action: ActionRetry, Delay: delay}

	case out.Status >= 500 && out.Status < 600:
		if attempt+1 >= p.MaxRetries {
			return Decision{Action: ActionFail, Err: &Error{
				Kind:   KindServer,
				Status: out.Status,
				URL:    url,
			}}
		}
		return Decision{Action: ActionRetry, Delay: p.backoff(attempt + 1)}

	default:
		return Decision{Action: ActionFail, Err: &Error{
			Kind:   KindHTTP,
			Status: out.Status,
			URL:    url,
		}}
	}
}

func (p Policy) rateLimitCap() int {
	if p.RateLimitRetryCap == 0 {
		return p.MaxRetries
	}
	return p.RateLimitRetryCap
}

func (p Policy) backoff(attempt int) time.Duration {
	seconds := math.Pow(p.BackoffFactor, float64(attempt))
	return time.Duration(seconds * float64(time.Second))
}
