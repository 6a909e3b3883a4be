package output

import (
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/JakeFAU/election-results-scraper/internal/dataset"
	"github.com/JakeFAU/election-results-scraper/internal/diagnostics"
)

// RenderSummary prints rows per area and skipped pages per reason.
func RenderSummary(w io.Writer, ds *dataset.Dataset, diags []diagnostics.Record) {
	groups, keys := ds.Index()
	type areaCount struct {
		locations int
		rows      int
	}
	var order []string
	counts := make(map[string]*areaCount)
	for _, k := range keys {
		c, ok := counts[k.Area]
		if !ok {
			c = &areaCount{}
			counts[k.Area] = c
			order = append(order, k.Area)
		}
		c.locations++
		c.rows += len(groups[k])
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Area", "Locations", "Rows"})
	for _, area := range order {
		t.AppendRow(table.Row{area, counts[area].locations, counts[area].rows})
	}
	t.AppendFooter(table.Row{"Total", len(keys), ds.Len()})
	t.Render()

	if len(diags) == 0 {
		return
	}
	byReason := make(map[string]int)
	for _, rec := range diags {
		byReason[string(rec.Stage)+"/"+string(rec.Reason)]++
	}
	reasons := make([]string, 0, len(byReason))
	for r := range byReason {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)

	s := table.NewWriter()
	s.SetOutputMirror(w)
	s.SetStyle(table.StyleRounded)
	s.AppendHeader(table.Row{"Skipped (stage/reason)", "Pages"})
	for _, r := range reasons {
		s.AppendRow(table.Row{r, byReason[r]})
	}
	s.AppendFooter(table.Row{"Total", len(diags)})
	s.Render()
}
