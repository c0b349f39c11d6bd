package fetch

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func strictPolicy() Policy {
	return Policy{
		MaxRetries:         5,
		BackoffFactor:      1.5,
		StrictEmptyPayload: true,
	}
}

func TestDecideSuccess(t *testing.T) {
	t.Parallel()

	d := strictPolicy().Decide("https://example.test/list", Outcome{Status: 200}, 0)
	require.Equal(t, ActionSucceed, d.Action)
}

func TestDecideEmptyPayloadStrict(t *testing.T) {
	t.Parallel()

	d := strictPolicy().Decide("https://example.test/list", Outcome{Status: 200, EmptyBody: true}, 0)
	require.Equal(t, ActionFail, d.Action)
	require.Equal(t, KindEmptyPayload, d.Err.Kind)
}

func TestDecideEmptyPayloadLenient(t *testing.T) {
	t.Parallel()

	p := strictPolicy()
	p.StrictEmptyPayload = false
	d := p.Decide("https://example.test/list", Outcome{Status: 200, EmptyBody: true}, 0)
	require.Equal(t, ActionSucceed, d.Action)
}

func TestDecideTransportBackoffGrowth(t *testing.T) {
	t.Parallel()

	p := strictPolicy()
	out := Outcome{Err: errors.New("connection refused")}

	d := p.Decide("https://example.test/list", out, 0)
	require.Equal(t, ActionRetry, d.Action)
	require.Equal(t, 1500*time.Millisecond, d.Delay)

	d = p.Decide("https://example.test/list", out, 1)
	require.Equal(t, ActionRetry, d.Action)
	require.Equal(t, 2250*time.Millisecond, d.Delay)

	d = p.Decide("https://example.test/list", out, 2)
	require.Equal(t, ActionRetry, d.Action)
	require.Equal(t, 3375*time.Millisecond, d.Delay)
}

func TestDecideTransportExhausted(t *testing.T) {
	t.Parallel()

	p := strictPolicy()
	d := p.Decide("https://example.test/list", Outcome{Err: errors.New("timeout")}, p.MaxRetries-1)
	require.Equal(t, ActionFail, d.Action)
	require.Equal(t, KindExhausted, d.Err.Kind)
}

func TestDecideRateLimitUsesAdvertisedDelay(t *testing.T) {
	t.Parallel()

	d := strictPolicy().Decide("https://example.test/list",
		Outcome{Status: 429, RetryAfter: 5 * time.Second}, 0)
	require.Equal(t, ActionRetry, d.Action)
	require.Equal(t, 5*time.Second, d.Delay)
}

func TestDecideRateLimitDefaultDelay(t *testing.T) {
	t.Parallel()

	d := strictPolicy().Decide("https://example.test/list", Outcome{Status: 429}, 0)
	require.Equal(t, ActionRetry, d.Action)
	require.Equal(t, DefaultRetryAfter, d.Delay)
}

func TestDecideRateLimitCapped(t *testing.T) {
	t.Parallel()

	p := strictPolicy()
	d := p.Decide("https://example.test/list", Outcome{Status: 429}, p.MaxRetries-1)
	require.Equal(t, ActionFail, d.Action)
	require.Equal(t, KindExhausted, d.Err.Kind)
}

func TestDecideRateLimitUncapped(t *testing.T) {
	t.Parallel()

	p := strictPolicy()
	p.RateLimitRetryCap = -1
	d := p.Decide("https://example.test/list", Outcome{Status: 429}, 400)
	require.Equal(t, ActionRetry, d.Action)
}

func TestDecideServerErrorRetriesThenFails(t *testing.T) {
	t.Parallel()

	p := strictPolicy()
	out := Outcome{Status: 503}

	d := p.Decide("https://example.test/list", out, 0)
	require.Equal(t, ActionRetry, d.Action)
	require.Equal(t, 1500*time.Millisecond, d.Delay)

	d = p.Decide("https://example.test/list", out, p.MaxRetries-1)
	require.Equal(t, ActionFail, d.Action)
	require.Equal(t, KindServer, d.Err.Kind)
	require.Equal(t, 503, d.Err.Status)
}

func TestDecideClientErrorNeverRetries(t *testing.T) {
	t.Parallel()

	d := strictPolicy().Decide("https://example.test/list", Outcome{Status: 404}, 0)
	require.Equal(t, ActionFail, d.Action)
	require.Equal(t, KindHTTP, d.Err.Kind)
	require.Equal(t, 404, d.Err.Status)
}
