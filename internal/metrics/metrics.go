// Package metrics exposes Prometheus collectors for the connector.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchAttemptsTotal     *prometheus.CounterVec
	fetchRetrySleepSeconds prometheus.Histogram
	recordsParsedTotal     *prometheus.CounterVec
	documentsInsertedTotal *prometheus.CounterVec
	documentsRejectedTotal *prometheus.CounterVec
	endpointFailuresTotal  *prometheus.CounterVec
	runDurationSeconds     prometheus.Histogram
	runsTotal              *prometheus.CounterVec

	once sync.Once
)

// Init registers the Prometheus collectors. It is safe to call multiple
// times; recorder functions are no-ops until it runs.
func Init() {
	once.Do(func() {
		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blocklist_fetch_attempts_total",
				Help: "Total HTTP fetch attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		fetchRetrySleepSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "blocklist_fetch_retry_sleep_seconds",
				Help:    "Histogram of delays slept before fetch retries.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
			},
		)

		recordsParsedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blocklist_records_parsed_total",
				Help: "Total records parsed from list bodies, labeled by service.",
			},
			[]string{"service"},
		)

		documentsInsertedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blocklist_documents_inserted_total",
				Help: "Total documents acknowledged by the store, labeled by service.",
			},
			[]string{"service"},
		)

		documentsRejectedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blocklist_documents_rejected_total",
				Help: "Total documents rejected during bulk writes, labeled by service.",
			},
			[]string{"service"},
		)

		endpointFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blocklist_endpoint_failures_total",
				Help: "Total endpoints skipped after fetch failures, labeled by service.",
			},
			[]string{"service"},
		)

		runDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "blocklist_run_duration_seconds",
				Help:    "Histogram of full ETL run durations.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blocklist_runs_total",
				Help: "Total ETL runs, labeled by result.",
			},
			[]string{"result"},
		)
	})
}

// FetchAttempt records one request attempt. A transport failure is
// labeled "transport"; otherwise the outcome is the status code.
func FetchAttempt(status int, transportErr bool) {
	if fetchAttemptsTotal == nil {
		return
	}
	outcome := strconv.Itoa(status)
	if transportErr {
		outcome = "transport"
	}
	fetchAttemptsTotal.WithLabelValues(outcome).Inc()
}

// FetchRetry records the delay slept before a retry.
func FetchRetry(delay time.Duration) {
	if fetchRetrySleepSeconds == nil {
		return
	}
	fetchRetrySleepSeconds.Observe(delay.Seconds())
}

// RecordsParsed adds parsed record counts for a service.
func RecordsParsed(service string, count int) {
	if recordsParsedTotal == nil {
		return
	}
	recordsParsedTotal.WithLabelValues(service).Add(float64(count))
}

// DocumentsInserted adds accepted document counts for a service.
func DocumentsInserted(service string, count int) {
	if documentsInsertedTotal == nil {
		return
	}
	documentsInsertedTotal.WithLabelValues(service).Add(float64(count))
}

// DocumentsRejected adds rejected document counts for a service.
func DocumentsRejected(service string, count int) {
	if documentsRejectedTotal == nil {
		return
	}
	documentsRejectedTotal.WithLabelValues(service).Add(float64(count))
}

// EndpointFailure marks a skipped endpoint.
func EndpointFailure(service string) {
	if endpointFailuresTotal == nil {
		return
	}
	endpointFailuresTotal.WithLabelValues(service).Inc()
}

// RunCompleted records one finished run and its duration.
func RunCompleted(duration time.Duration, failedEndpoints int) {
	if runsTotal == nil {
		return
	}
	result := "clean"
	if failedEndpoints > 0 {
		result = "partial"
	}
	runsTotal.WithLabelValues(result).Inc()
	runDurationSeconds.Observe(duration.Seconds())
}
