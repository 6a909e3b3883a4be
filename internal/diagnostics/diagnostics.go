// Package diagnostics collects the pages a run had to skip. Every record names
// the offending URL, the stage that failed and the classified reason.
package diagnostics

import (
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/election-results-scraper/internal/election"
)

// Stage is the part of the run that gave up on a page.
type Stage string

// Stages reported by the walker and the assembler.
const (
	StageDiscover Stage = "discover"
	StageExtract  Stage = "extract"
)

// Record describes one skipped page.
type Record struct {
	URL    string
	Stage  Stage
	Level  election.Level
	Reason election.Reason
	Error  string
}

// NewRecord classifies err into a Record.
func NewRecord(stage Stage, page election.PageDescriptor, err error) Record {
	rec := Record{
		URL:    page.URL,
		Stage:  stage,
		Level:  page.Level,
		Reason: election.Classify(err),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}

// Sink consumes records. Implementations must be safe for concurrent use.
type Sink interface {
	Report(rec Record)
}

// Recorder keeps records in memory in arrival order.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Report implements Sink.
func (r *Recorder) Report(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

// Records returns a copy of what was reported so far.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

// Len returns the number of records.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// LogSink writes each record as a structured warning.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a zap logger to the Sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Report implements Sink.
func (s *LogSink) Report(rec Record) {
	s.logger.Warn("page skipped",
		zap.String("url", rec.URL),
		zap.String("stage", string(rec.Stage)),
		zap.String("level", string(rec.Level)),
		zap.String("reason", string(rec.Reason)),
		zap.String("error", rec.Error),
	)
}

// Multi fans a record out to several sinks.
type Multi []Sink

// Report implements Sink.
func (m Multi) Report(rec Record) {
	for _, s := range m {
		if s != nil {
			s.Report(rec)
		}
	}
}

// Discard drops every record.
type Discard struct{}

// Report implements Sink.
func (Discard) Report(Record) {}
