package extract

import (
	"fmt"
	"net/url"
	"path"
	"regexp"

	"github.com/JakeFAU/election-results-scraper/internal/election"
	"github.com/JakeFAU/election-results-scraper/internal/markup"
)

var districtCode = regexp.MustCompile(`(\d+)(?:\.html?)?$`)

// Extractor turns a terminal results page into a normalized table.
type Extractor struct {
	locators Locators
}

// New returns an Extractor using the given element locators.
func New(locators Locators) *Extractor {
	return &Extractor{locators: locators}
}

// NewDefault returns an Extractor for the live results site markup.
func NewDefault() *Extractor {
	return New(DefaultLocators)
}

// Detect reports which layout the page carries. District pages are always
// flat; entity and sector pages prefer the list table over the majority
// table.
func (e *Extractor) Detect(doc *markup.Document, level election.Level) (Layout, error) {
	if level == election.LevelDistrict {
		if _, ok := doc.FindUnique(e.locators.DistrictTable.Tag, e.locators.DistrictTable.Class); ok {
			return LayoutDistrict, nil
		}
		return "", fmt.Errorf("district table %s: %w",
			markup.Selector(e.locators.DistrictTable.Tag, e.locators.DistrictTable.Class), election.ErrStructureNotFound)
	}
	if _, ok := doc.FindUnique(e.locators.ListTable.Tag, e.locators.ListTable.Class); ok {
		return LayoutList, nil
	}
	if _, ok := doc.FindUnique(e.locators.MajorityTable.Tag, e.locators.MajorityTable.Class); ok {
		return LayoutMajority, nil
	}
	return "", fmt.Errorf("no results table on %s page: %w", level, election.ErrStructureNotFound)
}

// Extract detects the layout of doc and normalizes its rows. The page
// descriptor supplies the source URL and the hierarchy level. Extract never
// mutates doc, so calling it twice yields identical tables.
func (e *Extractor) Extract(doc *markup.Document, page election.PageDescriptor) (election.Table, Layout, error) {
	layout, err := e.Detect(doc, page.Level)
	if err != nil {
		return election.Table{}, "", err
	}
	var table election.Table
	switch layout {
	case LayoutList:
		table, err = e.list(doc, page.URL)
	case LayoutMajority:
		table, err = e.majority(doc, page.URL)
	case LayoutDistrict:
		table, err = e.district(doc, page.URL)
	}
	if err != nil {
		return election.Table{}, layout, err
	}
	return table, layout, nil
}

func (e *Extractor) list(doc *markup.Document, source string) (election.Table, error) {
	key, err := e.location(doc)
	if err != nil {
		return election.Table{}, err
	}
	table, _ := doc.FindUnique(e.locators.ListTable.Tag, e.locators.ListTable.Class)
	header, cells := split(table)
	width := len(header)
	if width == 0 {
		return election.Table{}, fmt.Errorf("list table has no header: %w", election.ErrStructureNotFound)
	}
	if width > listTailWidth {
		return election.Table{}, fmt.Errorf("list table has %d columns, at most %d supported: %w",
			width, listTailWidth, election.ErrStructureNotFound)
	}

	out := municipalTable()
	for i := 0; i+width <= len(cells); i += width {
		values := make([]election.Value, 0, len(MunicipalColumns))
		values = append(values, keyValues(key)...)
		values = append(values, election.Text(LabelList))
		values = append(values, election.Nulls(majorityStride)...)
		values = append(values, texts(cells[i:i+width])...)
		values = append(values, election.Nulls(listTailWidth-width)...)
		out.Rows = append(out.Rows, election.Row{Source: source, Values: values})
	}
	return out, nil
}

func (e *Extractor) majority(doc *markup.Document, source string) (election.Table, error) {
	key, err := e.location(doc)
	if err != nil {
		return election.Table{}, err
	}
	table, _ := doc.FindUnique(e.locators.MajorityTable.Tag, e.locators.MajorityTable.Class)
	_, cells := split(table)

	out := municipalTable()
	for i := 0; i+majorityStride <= len(cells); i += majorityStride {
		values := make([]election.Value, 0, len(MunicipalColumns))
		values = append(values, keyValues(key)...)
		values = append(values, election.Text(LabelMajority))
		values = append(values, texts(cells[i:i+majorityStride])...)
		values = append(values, election.Nulls(listTailWidth)...)
		out.Rows = append(out.Rows, election.Row{Source: source, Values: values})
	}
	return out, nil
}

func (e *Extractor) district(doc *markup.Document, source string) (election.Table, error) {
	code, err := DistrictCode(source)
	if err != nil {
		return election.Table{}, err
	}
	table, _ := doc.FindUnique(e.locators.DistrictTable.Tag, e.locators.DistrictTable.Class)
	rows := table.FindAll("tr")
	if len(rows) == 0 {
		return election.Table{}, fmt.Errorf("district table has no rows: %w", election.ErrStructureNotFound)
	}
	header := headerCells(rows[0])
	if len(header) == 0 {
		return election.Table{}, fmt.Errorf("district table has no header: %w", election.ErrStructureNotFound)
	}

	out := election.Table{
		Columns:    append([]string{DistrictColumn}, headerTexts(header)...),
		KeyColumns: 1,
	}
	for _, tr := range rows[1:] {
		cells := tr.FindAll("td")
		if len(cells) == 0 {
			continue
		}
		if len(cells) > len(header) {
			return election.Table{}, fmt.Errorf("district row has %d cells, header has %d: %w",
				len(cells), len(header), election.ErrStructureNotFound)
		}
		values := make([]election.Value, 0, len(out.Columns))
		values = append(values, election.Text(code))
		values = append(values, texts(cells)...)
		values = append(values, election.Nulls(len(header)-len(cells))...)
		out.Rows = append(out.Rows, election.Row{Source: source, Values: values})
	}
	return out, nil
}

// DistrictCode returns the numeric code carried by the last path component
// of a district page URL, e.g. "00101" for ".../001/00101.html".
func DistrictCode(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("district url %q: %w", rawURL, err)
	}
	m := districtCode.FindStringSubmatch(path.Base(u.Path))
	if m == nil {
		return "", fmt.Errorf("no district code in %q: %w", rawURL, election.ErrStructureNotFound)
	}
	return m[1], nil
}

func municipalTable() election.Table {
	return election.Table{
		Columns:    append([]string(nil), MunicipalColumns...),
		KeyColumns: municipalKeyColumns,
	}
}

func keyValues(key election.LocationKey) []election.Value {
	return []election.Value{election.Text(key.Area), election.Text(key.SubArea)}
}

// split returns the header cells of the first row and every data cell of
// the table, in document order. The first row only counts as a header row,
// and is left out of the data, when it holds th cells.
func split(table markup.Element) ([]markup.Element, []markup.Element) {
	rows := table.FindAll("tr")
	if len(rows) == 0 {
		return nil, nil
	}
	header := headerCells(rows[0])
	data := rows
	if len(rows[0].FindAll("th")) > 0 {
		data = rows[1:]
	}
	var cells []markup.Element
	for _, tr := range data {
		cells = append(cells, tr.FindAll("td")...)
	}
	return header, cells
}

func headerCells(tr markup.Element) []markup.Element {
	if th := tr.FindAll("th"); len(th) > 0 {
		return th
	}
	return tr.FindAll("td")
}

func texts(cells []markup.Element) []election.Value {
	out := make([]election.Value, len(cells))
	for i, c := range cells {
		out[i] = election.Text(c.Text())
	}
	return out
}

func headerTexts(cells []markup.Element) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.Text()
	}
	return out
}
