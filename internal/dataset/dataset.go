// Package dataset folds per-page tables into one row set and drives the
// extraction of every terminal page of a run.
package dataset

import (
	"fmt"

	"github.com/JakeFAU/election-results-scraper/internal/election"
)

// Dataset is the ordered concatenation of every extracted table. All rows
// share the width of Columns.
type Dataset struct {
	Columns    []string
	KeyColumns int
	Rows       []election.Row
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Append adds the rows of t. Columns are matched by name and occurrence so
// repeated headers such as "Voix" stay distinct. Columns unknown so far are
// appended and earlier rows are padded with null markers.
func (d *Dataset) Append(t election.Table) error {
	if len(t.Rows) == 0 && len(d.Columns) > 0 {
		return nil
	}
	if len(d.Columns) == 0 {
		d.KeyColumns = t.KeyColumns
	} else if t.KeyColumns != d.KeyColumns {
		return fmt.Errorf("table keyed on %d columns, dataset on %d", t.KeyColumns, d.KeyColumns)
	}

	positions := d.align(t.Columns)
	width := len(d.Columns)
	for i := range d.Rows {
		if pad := width - len(d.Rows[i].Values); pad > 0 {
			d.Rows[i].Values = append(d.Rows[i].Values, election.Nulls(pad)...)
		}
	}
	for _, row := range t.Rows {
		values := election.Nulls(width)
		for i, v := range row.Values {
			if i < len(positions) {
				values[positions[i]] = v
			}
		}
		d.Rows = append(d.Rows, election.Row{Source: row.Source, Values: values})
	}
	return nil
}

// align maps every column of cols to its index in d.Columns, adding the
// ones missing.
func (d *Dataset) align(cols []string) []int {
	type slot struct {
		name       string
		occurrence int
	}
	index := make(map[slot]int, len(d.Columns))
	seen := make(map[string]int, len(d.Columns))
	for i, c := range d.Columns {
		index[slot{c, seen[c]}] = i
		seen[c]++
	}

	positions := make([]int, len(cols))
	seen = make(map[string]int, len(cols))
	for i, c := range cols {
		s := slot{c, seen[c]}
		seen[c]++
		pos, ok := index[s]
		if !ok {
			pos = len(d.Columns)
			d.Columns = append(d.Columns, c)
			index[s] = pos
		}
		positions[i] = pos
	}
	return positions
}

// Index groups row positions by location key. keys lists every key once in
// order of first appearance.
func (d *Dataset) Index() (groups map[election.LocationKey][]int, keys []election.LocationKey) {
	groups = make(map[election.LocationKey][]int)
	for i, row := range d.Rows {
		k := election.KeyOf(row.Values, d.KeyColumns)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], i)
	}
	return groups, keys
}

// Span is the run of rows [Start, End).
type Span struct {
	Start, End int
}

// Len returns the number of rows in the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Spans returns the runs of consecutive rows that agree on the first
// depth+1 key columns: depth 0 groups by area, depth 1 by the full location
// key. A location whose rows are not adjacent yields one span per run.
func (d *Dataset) Spans(depth int) []Span {
	if depth < 0 || depth >= d.KeyColumns || len(d.Rows) == 0 {
		return nil
	}
	var out []Span
	start := 0
	for i := 1; i <= len(d.Rows); i++ {
		if i < len(d.Rows) && d.sameKeyPrefix(start, i, depth+1) {
			continue
		}
		out = append(out, Span{Start: start, End: i})
		start = i
	}
	return out
}

func (d *Dataset) sameKeyPrefix(a, b, n int) bool {
	va, vb := d.Rows[a].Values, d.Rows[b].Values
	for k := 0; k < n; k++ {
		if va[k] != vb[k] {
			return false
		}
	}
	return true
}

// Strings renders row i with nulls as empty strings.
func (d *Dataset) Strings(i int) []string {
	values := d.Rows[i].Values
	out := make([]string, len(values))
	for j, v := range values {
		out[j] = v.String()
	}
	return out
}

// Key returns the location key of row i.
func (d *Dataset) Key(i int) election.LocationKey {
	return election.KeyOf(d.Rows[i].Values, d.KeyColumns)
}
