package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) sleep(_ context.Context, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, delay)
	return nil
}

func (s *recordingSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func newTestFetcher(t *testing.T, sleeper *recordingSleeper) *Fetcher {
	t.Helper()
	return New(Config{
		Timeout: 5 * time.Second,
		Policy: Policy{
			MaxRetries:         5,
			BackoffFactor:      1.5,
			StrictEmptyPayload: true,
		},
	}, zap.NewNop(), WithSleep(sleeper.sleep))
}

func TestFetchReturnsBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("1.2.3.4\n5.6.7.8\n"))
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	body, err := newTestFetcher(t, sleeper).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "1.2.3.4\n5.6.7.8\n", body)
	require.Empty(t, sleeper.recorded())
}

func TestFetchRateLimitSleepsAdvertisedDelay(t *testing.T) {
	t.Parallel()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("1.2.3.4\n"))
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	body, err := newTestFetcher(t, sleeper).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "1.2.3.4\n", body)
	require.Equal(t, []time.Duration{5 * time.Second}, sleeper.recorded())
}

func TestFetchServerErrorsBackOffExponentially(t *testing.T) {
	t.Parallel()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls <= 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("1.2.3.4\n"))
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	body, err := newTestFetcher(t, sleeper).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "1.2.3.4\n", body)
	require.Equal(t, []time.Duration{
		1500 * time.Millisecond,
		2250 * time.Millisecond,
		3375 * time.Millisecond,
	}, sleeper.recorded())
	require.Equal(t, 4, calls)
}

func TestFetchServerErrorExhaustsBudget(t *testing.T) {
	t.Parallel()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	_, err := newTestFetcher(t, sleeper).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.True(t, IsKind(err, KindServer))
	require.Equal(t, 5, calls)
	require.Len(t, sleeper.recorded(), 4)
}

func TestFetchClientErrorFailsImmediately(t *testing.T) {
	t.Parallel()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	_, err := newTestFetcher(t, sleeper).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.True(t, IsKind(err, KindHTTP))
	require.Equal(t, 1, calls)
	require.Empty(t, sleeper.recorded())
}

func TestFetchEmptyPayloadStrict(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("  \n\t\n"))
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	_, err := newTestFetcher(t, sleeper).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.True(t, IsKind(err, KindEmptyPayload))
	require.Empty(t, sleeper.recorded())
}

func TestFetchTransportFailureExhausts(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse every connection

	sleeper := &recordingSleeper{}
	_, err := newTestFetcher(t, sleeper).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.True(t, IsKind(err, KindExhausted))
	require.Len(t, sleeper.recorded(), 4)
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	require.Equal(t, 5*time.Second, parseRetryAfter("5"))
	require.Equal(t, time.Duration(0), parseRetryAfter(""))
	require.Equal(t, time.Duration(0), parseRetryAfter("soon"))
	require.Equal(t, time.Duration(0), parseRetryAfter("-3"))
}
