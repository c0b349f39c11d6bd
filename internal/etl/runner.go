// Package etl composes fetch, parse, and load into one sequential run
// over the configured endpoint table.
package etl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ssnlabs/blocklistd/internal/archive"
	"github.com/ssnlabs/blocklistd/internal/feed"
	"github.com/ssnlabs/blocklistd/internal/metrics"
	"github.com/ssnlabs/blocklistd/internal/publisher"
	"github.com/ssnlabs/blocklistd/internal/storage"
)

// Clock supplies the capture timestamp assigned to each batch.
type Clock interface {
	Now() time.Time
}

// Fetcher retrieves one list body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// IDGenerator mints run IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// SleepFunc blocks for the given delay or until the context finishes.
type SleepFunc func(ctx context.Context, delay time.Duration) error

// EndpointResult captures the outcome of one endpoint's pipeline pass.
type EndpointResult struct {
	Service     string    `json:"service"`
	URL         string    `json:"url"`
	Parsed      int       `json:"parsed"`
	Inserted    int       `json:"inserted"`
	SnapshotURI string    `json:"snapshot_uri,omitempty"`
	Error       string    `json:"error,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Report summarizes one full run.
type Report struct {
	RunID           string           `json:"run_id"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
	TotalInserted   int              `json:"total_inserted"`
	FailedEndpoints int              `json:"failed_endpoints"`
	Endpoints       []EndpointResult `json:"endpoints"`
}

// Params collects the collaborators a Runner needs.
type Params struct {
	Endpoints     []feed.Endpoint
	Fetcher       Fetcher
	Parser        *feed.Parser
	Loader        *storage.Loader
	Blobs         archive.BlobStore
	Publisher     publisher.Publisher
	Topic         string
	ArchivePrefix string
	Clock         Clock
	IDGen         IDGenerator
	PoliteDelay   time.Duration
	// Sleep overrides the polite pause implementation; tests inject a
	// recording function here.
	Sleep  SleepFunc
	Logger *zap.Logger
}

// Runner executes the fetch-parse-load pipeline once per endpoint, in
// fixed order. A fetch failure skips that endpoint; nothing short of
// context cancellation aborts the run.
type Runner struct {
	p Params

	mu   sync.RWMutex
	last *Report
}

// New constructs a Runner.
func New(p Params) *Runner {
	if p.Blobs == nil {
		p.Blobs = archive.NoOp{}
	}
	if p.Publisher == nil {
		p.Publisher = publisher.NoOp{}
	}
	return &Runner{p: p}
}

// Run walks the endpoint table and returns the run report. The error is
// non-nil only when the context ended before the table was exhausted.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	runID, err := r.p.IDGen.NewID()
	if err != nil {
		return Report{}, fmt.Errorf("mint run id: %w", err)
	}

	report := Report{
		RunID:     runID,
		StartedAt: r.p.Clock.Now(),
	}
	r.p.Logger.Info("starting blocklist run",
		zap.String("run_id", runID),
		zap.Int("endpoints", len(r.p.Endpoints)),
	)

	for _, endpoint := range r.p.Endpoints {
		if ctx.Err() != nil {
			r.finish(&report)
			return report, fmt.Errorf("run interrupted: %w", ctx.Err())
		}
		report.Endpoints = append(report.Endpoints, r.processEndpoint(ctx, runID, endpoint))
		last := &report.Endpoints[len(report.Endpoints)-1]
		report.TotalInserted += last.Inserted
		if last.Error != "" {
			report.FailedEndpoints++
		}

		// Polite delay between endpoints so the upstream is not hit
		// back to back. It applies after failures too: the retry loop
		// has already hammered a failing endpoint, so the host-pacing
		// contract matters most right after one. Costs one idle delay
		// per failed endpoint per run.
		if err := r.pause(ctx); err != nil {
			r.finish(&report)
			return report, fmt.Errorf("run interrupted: %w", err)
		}
	}

	r.finish(&report)
	return report, nil
}

func (r *Runner) processEndpoint(ctx context.Context, runID string, endpoint feed.Endpoint) EndpointResult {
	result := EndpointResult{
		Service: endpoint.Service,
		URL:     endpoint.URL,
	}
	r.p.Logger.Info("fetching list",
		zap.String("run_id", runID),
		zap.String("service", endpoint.Service),
		zap.String("url", endpoint.URL),
	)

	body, err := r.p.Fetcher.Fetch(ctx, endpoint.URL)
	if err != nil {
		r.p.Logger.Error("fetch failed, skipping endpoint",
			zap.String("run_id", runID),
			zap.String("service", endpoint.Service),
			zap.Error(err),
		)
		metrics.EndpointFailure(endpoint.Service)
		result.Error = err.Error()
		return result
	}

	result.SnapshotURI = r.archiveSnapshot(ctx, runID, endpoint.Service, body)

	fetchedAt := r.p.Clock.Now()
	result.FetchedAt = fetchedAt
	records := r.p.Parser.Parse(body, endpoint.Service, fetchedAt)
	result.Parsed = len(records)
	metrics.RecordsParsed(endpoint.Service, len(records))

	result.Inserted = r.p.Loader.InsertBatch(ctx, records)
	metrics.DocumentsInserted(endpoint.Service, result.Inserted)

	r.publishSummary(ctx, runID, result)
	return result
}

// archiveSnapshot keeps the raw body for audit/replay. Best effort: a
// snapshot failure never costs the endpoint its batch.
func (r *Runner) archiveSnapshot(ctx context.Context, runID, service, body string) string {
	path := fmt.Sprintf("%s/%s/%s.txt", r.p.ArchivePrefix, runID, service)
	uri, err := r.p.Blobs.PutObject(ctx, path, "text/plain; charset=utf-8", []byte(body))
	if err != nil {
		r.p.Logger.Warn("snapshot archive failed",
			zap.String("run_id", runID),
			zap.String("service", service),
			zap.Error(err),
		)
		return ""
	}
	return uri
}

// publishSummary announces the batch outcome. Best effort as well.
func (r *Runner) publishSummary(ctx context.Context, runID string, result EndpointResult) {
	if r.p.Topic == "" {
		return
	}
	payload := map[string]any{
		"run_id":   runID,
		"service":  result.Service,
		"parsed":   result.Parsed,
		"inserted": result.Inserted,
		"source":   feed.Source,
	}
	if _, err := r.p.Publisher.Publish(ctx, r.p.Topic, payload); err != nil {
		r.p.Logger.Warn("batch summary publish failed",
			zap.String("run_id", runID),
			zap.String("service", result.Service),
			zap.Error(err),
		)
	}
}

func (r *Runner) pause(ctx context.Context) error {
	if r.p.PoliteDelay <= 0 {
		return nil
	}
	if r.p.Sleep != nil {
		return r.p.Sleep(ctx, r.p.PoliteDelay)
	}
	timer := time.NewTimer(r.p.PoliteDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *Runner) finish(report *Report) {
	report.FinishedAt = r.p.Clock.Now()
	metrics.RunCompleted(report.FinishedAt.Sub(report.StartedAt), report.FailedEndpoints)
	r.p.Logger.Info("blocklist run finished",
		zap.String("run_id", report.RunID),
		zap.Int("total_inserted", report.TotalInserted),
		zap.Int("failed_endpoints", report.FailedEndpoints),
	)

	r.mu.Lock()
	r.last = report
	r.mu.Unlock()
}

// LastReport returns the most recent run report, or nil before the
// first run completes.
func (r *Runner) LastReport() *Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}
