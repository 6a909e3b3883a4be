// Package markup is the DOM query surface used by the extractors. It wraps
// goquery so the crawl and extraction code only depends on a handful of
// operations: find one element by tag and class, find all descendants by tag,
// read an attribute and read cleaned text.
package markup

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed HTML page.
type Document struct {
	root *goquery.Document
}

// Element is a single node of a Document.
type Element struct {
	sel *goquery.Selection
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{root: doc}, nil
}

// ParseBytes parses an in-memory HTML document.
func ParseBytes(body []byte) (*Document, error) {
	return Parse(bytes.NewReader(body))
}

// Root returns the document element.
func (d *Document) Root() Element {
	return Element{sel: d.root.Selection}
}

// FindUnique returns the first element with the given tag carrying every class
// of the space separated class list. ok is false when nothing matches.
func (d *Document) FindUnique(tag, class string) (Element, bool) {
	return d.Root().FindUnique(tag, class)
}

// FindAll returns every element with the given tag in document order.
func (d *Document) FindAll(tag string) []Element {
	return d.Root().FindAll(tag)
}

// FindUnique is the scoped variant of Document.FindUnique.
func (e Element) FindUnique(tag, class string) (Element, bool) {
	found := e.sel.Find(Selector(tag, class)).First()
	if found.Length() == 0 {
		return Element{}, false
	}
	return Element{sel: found}, true
}

// FindAll returns every descendant with the given tag in document order.
func (e Element) FindAll(tag string) []Element {
	found := e.sel.Find(tag)
	out := make([]Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		out = append(out, Element{sel: s})
	})
	return out
}

// Children returns the direct children matching selector.
func (e Element) Children(selector string) []Element {
	found := e.sel.ChildrenFiltered(selector)
	out := make([]Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		out = append(out, Element{sel: s})
	})
	return out
}

// Attr returns the value of an attribute.
func (e Element) Attr(name string) (string, bool) {
	if e.sel == nil {
		return "", false
	}
	return e.sel.Attr(name)
}

// RawText returns the concatenated text content without any cleanup.
func (e Element) RawText() string {
	if e.sel == nil {
		return ""
	}
	return e.sel.Text()
}

// Text returns the text content with whitespace artifacts removed.
func (e Element) Text() string {
	return Clean(e.RawText())
}

// Selector builds a CSS selector from a tag and a space separated class list.
func Selector(tag, class string) string {
	var b strings.Builder
	b.WriteString(tag)
	for _, c := range strings.Fields(class) {
		b.WriteByte('.')
		b.WriteString(c)
	}
	return b.String()
}
