package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/JakeFAU/election-results-scraper/internal/dataset"
	"github.com/JakeFAU/election-results-scraper/internal/diagnostics"
)

// CSV writes the results as RFC 4180 CSV. Null cells are empty fields.
type CSV struct{}

// Extension implements Encoder.
func (CSV) Extension() string { return FormatCSV }

// ContentType implements Encoder.
func (CSV) ContentType() string { return "text/csv; charset=utf-8" }

// Encode implements Encoder. Diagnostics go to a sidecar file.
func (CSV) Encode(w io.Writer, ds *dataset.Dataset, _ []diagnostics.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range ds.Rows {
		if err := cw.Write(ds.Strings(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeDiagnostics writes the skipped pages.
func (CSV) EncodeDiagnostics(w io.Writer, diags []diagnostics.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(diagnosticsHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range diags {
		if err := cw.Write(diagnosticsRow(rec)); err != nil {
			return fmt.Errorf("write diagnostic: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
