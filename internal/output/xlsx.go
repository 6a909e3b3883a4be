package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JakeFAU/election-results-scraper/internal/dataset"
	"github.com/JakeFAU/election-results-scraper/internal/diagnostics"
)

// Sheet names of the workbook.
const (
	ResultsSheet     = "Résultats"
	DiagnosticsSheet = "Diagnostics"
)

// XLSX writes a workbook with a results sheet and a diagnostics sheet.
// Null cells are left empty. Key cells of consecutive rows sharing an area,
// then a location, are merged.
type XLSX struct{}

// Extension implements Encoder.
func (XLSX) Extension() string { return FormatXLSX }

// ContentType implements Encoder.
func (XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Encode implements Encoder.
func (XLSX) Encode(w io.Writer, ds *dataset.Dataset, diags []diagnostics.Record) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), ResultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setRow(f, ResultsSheet, 1, toAny(ds.Columns)); err != nil {
		return err
	}
	for i, row := range ds.Rows {
		cells := make([]any, len(row.Values))
		for j, v := range row.Values {
			if v.Valid {
				cells[j] = v.Text
			}
		}
		if err := setRow(f, ResultsSheet, i+2, cells); err != nil {
			return err
		}
	}
	if err := mergeKeyColumns(f, ds); err != nil {
		return err
	}
	if err := f.SetPanes(ResultsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.NewSheet(DiagnosticsSheet); err != nil {
		return fmt.Errorf("add diagnostics sheet: %w", err)
	}
	if err := setRow(f, DiagnosticsSheet, 1, toAny(diagnosticsHeader)); err != nil {
		return err
	}
	for i, rec := range diags {
		if err := setRow(f, DiagnosticsSheet, i+2, toAny(diagnosticsRow(rec))); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// mergeKeyColumns merges the key cells of consecutive rows of one area, then
// of one location. MergeCell blanks every cell but the top one.
func mergeKeyColumns(f *excelize.File, ds *dataset.Dataset) error {
	style, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{Vertical: "top"}})
	if err != nil {
		return fmt.Errorf("key style: %w", err)
	}
	for col := 0; col < ds.KeyColumns; col++ {
		for _, span := range ds.Spans(col) {
			if span.Len() < 2 {
				continue
			}
			top, err := excelize.CoordinatesToCellName(col+1, span.Start+2)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			bottom, err := excelize.CoordinatesToCellName(col+1, span.End+1)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.MergeCell(ResultsSheet, top, bottom); err != nil {
				return fmt.Errorf("merge %s:%s: %w", top, bottom, err)
			}
			if err := f.SetCellStyle(ResultsSheet, top, bottom, style); err != nil {
				return fmt.Errorf("style %s:%s: %w", top, bottom, err)
			}
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
