package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ssnlabs/blocklistd/internal/etl"
	"github.com/ssnlabs/blocklistd/internal/feed"
	"github.com/ssnlabs/blocklistd/internal/storage"
	"github.com/ssnlabs/blocklistd/internal/storage/memory"
)

type staticFetcher struct {
	body string
}

func (f *staticFetcher) Fetch(context.Context, string) (string, error) {
	return f.body, nil
}

type staticClock struct{}

func (staticClock) Now() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

type staticIDGen struct{}

func (staticIDGen) NewID() (string, error) {
	return "run-api", nil
}

type failingPinger struct {
	err error
}

func (p *failingPinger) Ping(context.Context) error {
	return p.err
}

func newTestRunner(t *testing.T) *etl.Runner {
	t.Helper()
	store := memory.NewStore()
	return etl.New(etl.Params{
		Endpoints: []feed.Endpoint{{Service: "ssh", URL: "https://lists.example.test/ssh.txt"}},
		Fetcher:   &staticFetcher{body: "1.2.3.4\n"},
		Parser:    feed.NewParser(true, zap.NewNop()),
		Loader:    storage.NewLoader(store.Collection("blocklist_lists_raw"), zap.NewNop()),
		Clock:     staticClock{},
		IDGen:     staticIDGen{},
		Logger:    zap.NewNop(),
	})
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := NewServer(newTestRunner(t), &failingPinger{}, zap.NewNop())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	require.Contains(t, rec.Body.String(), `"ok"`)
}

func TestReadyzStoreDown(t *testing.T) {
	t.Parallel()

	srv := NewServer(newTestRunner(t), &failingPinger{err: errors.New("down")}, zap.NewNop())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadyzStoreUp(t *testing.T) {
	t.Parallel()

	srv := NewServer(newTestRunner(t), &failingPinger{}, zap.NewNop())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLastRunBeforeAndAfter(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(t)
	srv := NewServer(runner, &failingPinger{}, zap.NewNop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/last", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/last", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"run-api"`)
}
