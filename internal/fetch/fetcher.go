package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ssnlabs/blocklistd/internal/metrics"
)

// SleepFunc blocks for the given delay or until the context finishes.
// Tests inject a recording implementation so no real time passes.
type SleepFunc func(ctx context.Context, delay time.Duration) error

// Config controls Fetcher behavior.
type Config struct {
	Timeout    time.Duration
	UserAgent  string
	PerHostRPS float64
	Policy     Policy
}

// Fetcher performs a single list retrieval with the retry behavior
// encoded in Policy. It is safe for sequential reuse across endpoints.
type Fetcher struct {
	cfg     Config
	client  *http.Client
	limiter *hostLimiter
	sleep   SleepFunc
	logger  *zap.Logger
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithSleep replaces the sleep implementation.
func WithSleep(sleep SleepFunc) Option {
	return func(f *Fetcher) {
		f.sleep = sleep
	}
}

// WithClient replaces the HTTP client.
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	f := &Fetcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: newHostLimiter(cfg.PerHostRPS),
		sleep:   pause,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves url and returns its body. The error, when non-nil, is
// a *Error carrying the failure kind.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	attempt := 0
	for {
		if err := f.limiter.Wait(ctx, url); err != nil {
			return "", &Error{Kind: KindTransport, URL: url, Err: err}
		}

		out, body := f.attempt(ctx, url)
		decision := f.cfg.Policy.Decide(url, out, attempt)
		metrics.FetchAttempt(out.Status, out.Err != nil)

		switch decision.Action {
		case ActionSucceed:
			return body, nil
		case ActionFail:
			return "", decision.Err
		case ActionRetry:
			f.logger.Warn("retrying fetch",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Int("status", out.Status),
				zap.Duration("delay", decision.Delay),
				zap.Error(out.Err),
			)
			metrics.FetchRetry(decision.Delay)
			if err := f.sleep(ctx, decision.Delay); err != nil {
				return "", &Error{Kind: KindTransport, URL: url, Err: err}
			}
			attempt++
		}
	}
}

// attempt issues one GET and reduces the response to an Outcome. The
// body is returned separately so a success does not re-read it.
func (f *Fetcher) attempt(ctx context.Context, url string) (Outcome, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Outcome{Err: fmt.Errorf("build request: %w", err)}, ""
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Outcome{Err: err}, ""
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{Err: fmt.Errorf("read body: %w", err)}, ""
	}

	body := string(raw)
	return Outcome{
		Status:     resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		EmptyBody:  strings.TrimSpace(body) == "",
	}, body
}

func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// pause sleeps for delay unless the context finishes first.
func pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
