// Package pipeline runs one scrape end to end: walk the hierarchy, extract
// every terminal page, write the result file and report the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/election-results-scraper/internal/clock"
	"github.com/JakeFAU/election-results-scraper/internal/dataset"
	"github.com/JakeFAU/election-results-scraper/internal/diagnostics"
	"github.com/JakeFAU/election-results-scraper/internal/election"
	"github.com/JakeFAU/election-results-scraper/internal/metrics"
	"github.com/JakeFAU/election-results-scraper/internal/output"
	"github.com/JakeFAU/election-results-scraper/internal/walker"
)

// IDGenerator produces run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// ResultWriter renders and stores the dataset of a run.
type ResultWriter interface {
	Write(ctx context.Context, ds *dataset.Dataset, diags []diagnostics.Record, name string) (output.Result, error)
}

// RowSink persists the rows of a run, e.g. in Postgres.
type RowSink interface {
	SaveRun(ctx context.Context, runID string, ds *dataset.Dataset) (int64, error)
}

// Notifier announces finished runs.
type Notifier interface {
	Publish(ctx context.Context, payload any, attrs map[string]string) (string, error)
}

// Deps wires a Runner. Loader, Extractor, IDs and Writer are required.
type Deps struct {
	Loader    walker.Loader
	Extractor dataset.Extractor
	IDs       IDGenerator
	Writer    ResultWriter
	Rows      RowSink
	Notifier  Notifier
	// Diagnostics receives skipped pages in addition to the run log.
	Diagnostics diagnostics.Sink
	Workers     int
	// MetricsTextfile is rewritten after each run when set.
	MetricsTextfile string
	Logger          *zap.Logger
	Clock           clock.Clock
}

// Job is one scrape request.
type Job struct {
	Hierarchy walker.Hierarchy
	// RootURL is the page the walk starts from.
	RootURL string
	// Entity starts from a single entity page instead of an index.
	Entity bool
	// Target labels the run, e.g. the department code.
	Target string
	// Name is the base name of the result file.
	Name string
}

// Summary reports what a run produced.
type Summary struct {
	RunID         string        `json:"run_id"`
	Hierarchy     string        `json:"hierarchy"`
	Target        string        `json:"target,omitempty"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration_ns"`
	TerminalPages int           `json:"terminal_pages"`
	Extracted     int           `json:"extracted_pages"`
	Skipped       int           `json:"skipped_pages"`
	Duplicates    int           `json:"duplicate_pages"`
	Rows          int           `json:"rows"`
	StoredRows    int64         `json:"stored_rows,omitempty"`
	Output        string        `json:"output"`
	OutputSHA256  string        `json:"output_sha256"`
	OutputBytes   int           `json:"output_bytes"`
	Diagnostics   string        `json:"diagnostics_output,omitempty"`

	Dataset *dataset.Dataset     `json:"-"`
	Records []diagnostics.Record `json:"-"`
}

// Runner executes jobs.
type Runner struct {
	deps   Deps
	logger *zap.Logger
}

// NewRunner validates deps.
func NewRunner(deps Deps) (*Runner, error) {
	switch {
	case deps.Loader == nil:
		return nil, errors.New("pipeline: loader is required")
	case deps.Extractor == nil:
		return nil, errors.New("pipeline: extractor is required")
	case deps.IDs == nil:
		return nil, errors.New("pipeline: id generator is required")
	case deps.Writer == nil:
		return nil, errors.New("pipeline: writer is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Diagnostics == nil {
		deps.Diagnostics = diagnostics.Discard{}
	}
	return &Runner{deps: deps, logger: deps.Logger}, nil
}

// Run executes job. The returned error is set when nothing usable was
// produced: the root page could not be read, the run was canceled, or the
// result could not be stored. Skipped pages never fail a run.
func (r *Runner) Run(ctx context.Context, job Job) (Summary, error) {
	start := r.deps.Clock.Now()
	runID, err := r.deps.IDs.NewID()
	if err != nil {
		return Summary{}, fmt.Errorf("run id: %w", err)
	}
	logger := r.logger.With(zap.String("run_id", runID), zap.String("hierarchy", job.Hierarchy.Name))
	summary := Summary{
		RunID:     runID,
		Hierarchy: job.Hierarchy.Name,
		Target:    job.Target,
		StartedAt: start,
	}

	summary, err = r.run(ctx, job, summary, logger)
	summary.Duration = r.deps.Clock.Now().Sub(start)
	status := "succeeded"
	if err != nil {
		status = "failed"
		logger.Error("run failed", zap.Error(err))
	}
	metrics.ObserveRun(job.Hierarchy.Name, status, summary.Rows, summary.Duration)
	if werr := metrics.WriteTextfile(r.deps.MetricsTextfile); werr != nil {
		logger.Warn("metrics textfile not written", zap.Error(werr))
	}
	if err != nil {
		return summary, err
	}

	r.notify(ctx, summary, logger)
	logger.Info("run finished",
		zap.Int("rows", summary.Rows),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("dur", summary.Duration),
		zap.String("output", summary.Output),
	)
	return summary, nil
}

func (r *Runner) run(ctx context.Context, job Job, summary Summary, logger *zap.Logger) (Summary, error) {
	recorder := diagnostics.NewRecorder()
	sink := diagnostics.Multi{recorder, diagnostics.NewLogSink(logger), r.deps.Diagnostics}

	w := walker.New(r.deps.Loader, job.Hierarchy, sink, logger.Named("walker"))
	var (
		pages []election.PageDescriptor
		err   error
	)
	if job.Entity {
		pages, err = w.WalkEntity(ctx, job.RootURL)
	} else {
		pages, err = w.Walk(ctx, job.RootURL)
	}
	if err != nil {
		return summary, err
	}
	summary.TerminalPages = len(pages)

	asm := dataset.NewAssembler(r.deps.Loader, r.deps.Extractor, sink, logger.Named("assembler"), r.deps.Workers)
	ds, stats, err := asm.Assemble(ctx, pages)
	if err != nil {
		return summary, err
	}
	summary.Extracted = stats.Extracted
	summary.Duplicates = stats.Duplicates
	summary.Rows = ds.Len()
	summary.Dataset = ds
	summary.Records = recorder.Records()
	summary.Skipped = len(summary.Records)

	res, err := r.deps.Writer.Write(ctx, ds, summary.Records, job.Name)
	if err != nil {
		return summary, fmt.Errorf("write results: %w", err)
	}
	summary.Output = res.URI
	summary.OutputSHA256 = res.SHA256
	summary.OutputBytes = res.Bytes
	summary.Diagnostics = res.DiagnosticsURI

	if r.deps.Rows != nil {
		n, err := r.deps.Rows.SaveRun(ctx, summary.RunID, ds)
		if err != nil {
			return summary, fmt.Errorf("store rows: %w", err)
		}
		summary.StoredRows = n
	}
	return summary, nil
}

func (r *Runner) notify(ctx context.Context, summary Summary, logger *zap.Logger) {
	if r.deps.Notifier == nil {
		return
	}
	attrs := map[string]string{"hierarchy": summary.Hierarchy, "run_id": summary.RunID}
	id, err := r.deps.Notifier.Publish(ctx, summary, attrs)
	if err != nil {
		logger.Warn("run notification failed", zap.Error(err))
		return
	}
	logger.Debug("run notification published", zap.String("message_id", id))
}
