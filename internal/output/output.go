// Package output renders an assembled dataset into a result file and hands it
// to a blob store.
package output

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/election-results-scraper/internal/dataset"
	"github.com/JakeFAU/election-results-scraper/internal/diagnostics"
	"github.com/JakeFAU/election-results-scraper/internal/hash/sha256"
	"github.com/JakeFAU/election-results-scraper/internal/storage"
)

// Supported formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Encoder renders a dataset and the diagnostics of its run.
type Encoder interface {
	Extension() string
	ContentType() string
	Encode(w io.Writer, ds *dataset.Dataset, diags []diagnostics.Record) error
}

// sidecarEncoder is implemented by formats that cannot hold the diagnostics
// in the main file.
type sidecarEncoder interface {
	EncodeDiagnostics(w io.Writer, diags []diagnostics.Record) error
}

// EncoderFor returns the encoder of a format name.
func EncoderFor(format string) (Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatXLSX:
		return XLSX{}, nil
	case FormatCSV:
		return CSV{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// Writer encodes datasets and stores the result.
type Writer struct {
	encoder Encoder
	store   storage.BlobStore
	logger  *zap.Logger
}

// NewWriter pairs an encoder with a destination.
func NewWriter(encoder Encoder, store storage.BlobStore, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{encoder: encoder, store: store, logger: logger}
}

// Result locates the stored files of a run.
type Result struct {
	URI    string
	SHA256 string
	Bytes  int
	// DiagnosticsURI is set when a sidecar file was written.
	DiagnosticsURI string
}

// Write stores ds as name plus the format extension. Formats without room
// for diagnostics get a sidecar file when the run skipped pages.
func (w *Writer) Write(ctx context.Context, ds *dataset.Dataset, diags []diagnostics.Record, name string) (Result, error) {
	var buf bytes.Buffer
	if err := w.encoder.Encode(&buf, ds, diags); err != nil {
		return Result{}, fmt.Errorf("encode %s: %w", name, err)
	}
	res := Result{SHA256: sha256.Hex(buf.Bytes()), Bytes: buf.Len()}
	path := name + "." + w.encoder.Extension()
	uri, err := w.store.PutObject(ctx, path, w.encoder.ContentType(), &buf)
	if err != nil {
		return Result{}, fmt.Errorf("store %s: %w", path, err)
	}
	res.URI = uri
	w.logger.Info("results written",
		zap.String("uri", uri),
		zap.Int("rows", ds.Len()),
		zap.String("sha256", res.SHA256),
	)

	side, ok := w.encoder.(sidecarEncoder)
	if !ok || len(diags) == 0 {
		return res, nil
	}
	buf.Reset()
	if err := side.EncodeDiagnostics(&buf, diags); err != nil {
		return Result{}, fmt.Errorf("encode diagnostics: %w", err)
	}
	diagPath := name + "_diagnostics." + w.encoder.Extension()
	diagURI, err := w.store.PutObject(ctx, diagPath, w.encoder.ContentType(), &buf)
	if err != nil {
		return Result{}, fmt.Errorf("store %s: %w", diagPath, err)
	}
	res.DiagnosticsURI = diagURI
	w.logger.Info("diagnostics written", zap.String("uri", diagURI), zap.Int("records", len(diags)))
	return res, nil
}

var diagnosticsHeader = []string{"URL", "Stage", "Level", "Reason", "Error"}

func diagnosticsRow(rec diagnostics.Record) []string {
	return []string{rec.URL, string(rec.Stage), string(rec.Level), string(rec.Reason), rec.Error}
}
