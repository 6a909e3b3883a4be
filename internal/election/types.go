package election

import (
	"context"
	"fmt"
)

// Level identifies what kind of page a URL points to. It decides which
// extraction strategy applies next.
type Level string

// Page levels produced by the hierarchy walker.
const (
	LevelIndex            Level = "index"
	LevelLetterIndex      Level = "letter_index"
	LevelDepartment       Level = "department"
	LevelEntity           Level = "entity"
	LevelSectorizedEntity Level = "sectorized_entity"
	LevelSector           Level = "sector"
	LevelDistrict         Level = "district"
)

// Terminal reports whether pages of this level carry a results table.
func (l Level) Terminal() bool {
	switch l {
	case LevelEntity, LevelSector, LevelDistrict:
		return true
	default:
		return false
	}
}

// PageDescriptor is a URL plus its inferred level.
type PageDescriptor struct {
	URL   string
	Level Level
}

func (p PageDescriptor) String() string {
	return fmt.Sprintf("%s(%s)", p.Level, p.URL)
}

// LocationKey groups rows of one place. Several rows share a key, one per
// candidate or list.
type LocationKey struct {
	Area    string
	SubArea string
}

func (k LocationKey) String() string {
	if k.SubArea == "" {
		return k.Area
	}
	return k.Area + " - " + k.SubArea
}

// Value is a nullable text cell.
type Value struct {
	Text  string
	Valid bool
}

// Text wraps s as a present value.
func Text(s string) Value {
	return Value{Text: s, Valid: true}
}

// Null returns the explicit null marker.
func Null() Value {
	return Value{}
}

// Nulls returns n null markers.
func Nulls(n int) []Value {
	if n <= 0 {
		return nil
	}
	return make([]Value, n)
}

// String renders null as the empty string.
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return v.Text
}

// Row is one candidate or list record.
type Row struct {
	// Source is the page the row was extracted from.
	Source string
	Values []Value
}

// Table is the output of extracting one terminal page.
type Table struct {
	Columns []string
	// KeyColumns is the number of leading columns forming the LocationKey.
	KeyColumns int
	Rows       []Row
}

// Key returns the LocationKey of row i.
func (t Table) Key(i int) LocationKey {
	return KeyOf(t.Rows[i].Values, t.KeyColumns)
}

// KeyOf builds a LocationKey from the first keyColumns values.
func KeyOf(values []Value, keyColumns int) LocationKey {
	var key LocationKey
	if keyColumns > 0 && len(values) > 0 {
		key.Area = values[0].String()
	}
	if keyColumns > 1 && len(values) > 1 {
		key.SubArea = values[1].String()
	}
	return key
}

// Page is the raw result of a fetch.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Fetcher retrieves the bytes behind a URL. Failures are *TransportError.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}
