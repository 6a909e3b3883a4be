// Package links enumerates the child pages referenced by an index page.
package links

import "fmt"

// Kind is the structural shape holding the links.
type Kind int

// Supported locator kinds.
const (
	// KindSelect reads the option values of a dropdown.
	KindSelect Kind = iota + 1
	// KindTable reads the link cell of every table row.
	KindTable
	// KindAnchors reads every anchor of the page or of the located element.
	KindAnchors
)

func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindTable:
		return "table"
	case KindAnchors:
		return "anchors"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Locator declares where the links of a page live.
type Locator struct {
	// Name labels the locator in errors and logs.
	Name string
	Kind Kind
	// Tag and Class identify the unique element holding the links. Class is a
	// space separated list; every class must be present. An empty Tag on an
	// anchors locator means the whole page.
	Tag   string
	Class string
	// LinkColumn is the index of the cell carrying the link in a table row.
	// A negative value takes every anchor of the table.
	LinkColumn int
	// ExcludeText drops table rows whose link cell text equals it.
	ExcludeText string
	// SkipLeading and SkipTrailing drop non-data links at both ends.
	SkipLeading  int
	SkipTrailing int
}

// Select locates a dropdown; its first option is a placeholder.
func Select(name, class string) Locator {
	return Locator{Name: name, Kind: KindSelect, Tag: "select", Class: class, SkipLeading: 1}
}

// Table locates a results-index table whose rows link through one cell.
func Table(name, class string, linkColumn int, excludeText string) Locator {
	return Locator{Name: name, Kind: KindTable, Tag: "table", Class: class, LinkColumn: linkColumn, ExcludeText: excludeText}
}

// TableAnchors locates a table and takes every anchor in it.
func TableAnchors(name, class string) Locator {
	return Locator{Name: name, Kind: KindTable, Tag: "table", Class: class, LinkColumn: -1}
}

// PageAnchors takes every anchor of the page minus the navigation links at
// both ends.
func PageAnchors(name string, skipLeading, skipTrailing int) Locator {
	return Locator{Name: name, Kind: KindAnchors, SkipLeading: skipLeading, SkipTrailing: skipTrailing}
}

func (l Locator) String() string {
	if l.Name != "" {
		return l.Name
	}
	return fmt.Sprintf("%s %s.%s", l.Kind, l.Tag, l.Class)
}
