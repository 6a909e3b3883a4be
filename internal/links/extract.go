package links

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/JakeFAU/election-results-scraper/internal/election"
	"github.com/JakeFAU/election-results-scraper/internal/markup"
)

// Extract returns the ordered URLs referenced by the element loc points at,
// resolved against base. It fails with election.ErrStructureNotFound when the
// element is missing.
func Extract(doc *markup.Document, loc Locator, base *url.URL) ([]string, error) {
	var (
		refs []string
		err  error
	)
	switch loc.Kind {
	case KindSelect:
		refs, err = selectRefs(doc, loc)
	case KindTable:
		refs, err = tableRefs(doc, loc)
	case KindAnchors:
		refs, err = anchorRefs(doc, loc)
	default:
		return nil, fmt.Errorf("locator %s: unsupported kind %s", loc, loc.Kind)
	}
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		resolved, err := Resolve(base, ref)
		if err != nil {
			return nil, fmt.Errorf("locator %s: %w", loc, err)
		}
		out = append(out, resolved)
	}
	return out, nil
}

// Resolve turns a relative href into an absolute URL.
func Resolve(base *url.URL, ref string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("parse link %q: %w", ref, err)
	}
	if base == nil {
		return parsed.String(), nil
	}
	return base.ResolveReference(parsed).String(), nil
}

func locate(doc *markup.Document, loc Locator) (markup.Element, error) {
	el, ok := doc.FindUnique(loc.Tag, loc.Class)
	if !ok {
		return markup.Element{}, fmt.Errorf("locator %s: %s not found: %w",
			loc, markup.Selector(loc.Tag, loc.Class), election.ErrStructureNotFound)
	}
	return el, nil
}

func selectRefs(doc *markup.Document, loc Locator) ([]string, error) {
	sel, err := locate(doc, loc)
	if err != nil {
		return nil, err
	}
	options := trim(sel.FindAll("option"), loc.SkipLeading, loc.SkipTrailing)
	refs := make([]string, 0, len(options))
	for _, opt := range options {
		value, ok := opt.Attr("value")
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		refs = append(refs, value)
	}
	return refs, nil
}

func tableRefs(doc *markup.Document, loc Locator) ([]string, error) {
	table, err := locate(doc, loc)
	if err != nil {
		return nil, err
	}
	if loc.LinkColumn < 0 {
		return hrefs(trim(table.FindAll("a"), loc.SkipLeading, loc.SkipTrailing)), nil
	}

	var refs []string
	for _, row := range trim(table.FindAll("tr"), loc.SkipLeading, loc.SkipTrailing) {
		cells := row.FindAll("td")
		if len(cells) <= loc.LinkColumn {
			// header rows use th
			continue
		}
		cell := cells[loc.LinkColumn]
		if loc.ExcludeText != "" && cell.Text() == loc.ExcludeText {
			continue
		}
		refs = append(refs, hrefs(cell.FindAll("a"))...)
	}
	return refs, nil
}

func anchorRefs(doc *markup.Document, loc Locator) ([]string, error) {
	scope := doc.Root()
	if loc.Tag != "" {
		el, err := locate(doc, loc)
		if err != nil {
			return nil, err
		}
		scope = el
	}
	anchors := scope.FindAll("a")
	if len(anchors) <= loc.SkipLeading+loc.SkipTrailing {
		return nil, fmt.Errorf("locator %s: %d anchors, need more than %d: %w",
			loc, len(anchors), loc.SkipLeading+loc.SkipTrailing, election.ErrStructureNotFound)
	}
	return hrefs(trim(anchors, loc.SkipLeading, loc.SkipTrailing)), nil
}

func hrefs(anchors []markup.Element) []string {
	out := make([]string, 0, len(anchors))
	for _, a := range anchors {
		if href, ok := a.Attr("href"); ok && strings.TrimSpace(href) != "" {
			out = append(out, href)
		}
	}
	return out
}

func trim(els []markup.Element, leading, trailing int) []markup.Element {
	if leading < 0 {
		leading = 0
	}
	if trailing < 0 {
		trailing = 0
	}
	if leading+trailing >= len(els) {
		return nil
	}
	return els[leading : len(els)-trailing]
}
