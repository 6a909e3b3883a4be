// Package metrics exposes Prometheus collectors for scrape runs.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesFetchedTotal    *prometheus.CounterVec
	fetchDurationSeconds *prometheus.HistogramVec
	rowsExtractedTotal   *prometheus.CounterVec
	pagesSkippedTotal    *prometheus.CounterVec
	runsTotal            *prometheus.CounterVec
	lastRunRows          prometheus.Gauge
	lastRunDuration      prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "elections_pages_fetched_total",
				Help: "Pages fetched, labeled by page level and outcome.",
			},
			[]string{"level", "outcome"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "elections_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies, labeled by page level.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"level"},
		)

		rowsExtractedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "elections_rows_extracted_total",
				Help: "Result rows extracted, labeled by table layout.",
			},
			[]string{"layout"},
		)

		pagesSkippedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "elections_pages_skipped_total",
				Help: "Pages skipped after a failure, labeled by stage and reason.",
			},
			[]string{"stage", "reason"},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "elections_runs_total",
				Help: "Scrape runs, labeled by hierarchy and status.",
			},
			[]string{"hierarchy", "status"},
		)

		lastRunRows = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "elections_last_run_rows",
				Help: "Rows assembled by the most recent run.",
			},
		)

		lastRunDuration = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "elections_last_run_duration_seconds",
				Help: "Wall time of the most recent run.",
			},
		)
	})
}

// ObserveFetch records one page fetch.
func ObserveFetch(level, outcome string, duration time.Duration) {
	Init()
	pagesFetchedTotal.WithLabelValues(level, outcome).Inc()
	fetchDurationSeconds.WithLabelValues(level).Observe(duration.Seconds())
}

// ObserveRows adds extracted rows for a layout.
func ObserveRows(layout string, n int) {
	Init()
	if n > 0 {
		rowsExtractedTotal.WithLabelValues(layout).Add(float64(n))
	}
}

// ObserveSkip counts a skipped page.
func ObserveSkip(stage, reason string) {
	Init()
	pagesSkippedTotal.WithLabelValues(stage, reason).Inc()
}

// ObserveRun records the outcome of a whole run.
func ObserveRun(hierarchy, status string, rows int, duration time.Duration) {
	Init()
	runsTotal.WithLabelValues(hierarchy, status).Inc()
	lastRunRows.Set(float64(rows))
	lastRunDuration.Set(duration.Seconds())
}

// WriteTextfile dumps the default registry in the node exporter textfile
// format so one-shot runs can still be scraped.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	Init()
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
