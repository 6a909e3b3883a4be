// Package walker enumerates the terminal result pages reachable from a root
// index page by following the pagination levels of a Hierarchy.
package walker

import (
	"fmt"
	"net/url"

	"github.com/JakeFAU/election-results-scraper/internal/election"
	"github.com/JakeFAU/election-results-scraper/internal/links"
)

// NoResultsMarker is the link cell text of communes that reported nothing.
const NoResultsMarker = "Aucun résultat reçu"

// Hierarchy describes how one results site paginates: root index →
// intermediate pages → terminal pages, with a few sectorized entities that
// fan out once more.
type Hierarchy struct {
	Name string

	RootLevel         election.Level
	IntermediateLevel election.Level
	TerminalLevel     election.Level

	// IndexLocator finds the intermediate pages on the root page.
	IndexLocator links.Locator
	// TerminalLocator finds the terminal pages on an intermediate page.
	TerminalLocator links.Locator
	// SectorLocator finds the sector pages of a sectorized entity.
	SectorLocator links.Locator

	// Sectorized holds the absolute URLs of entities split into sectors.
	Sectorized map[string]struct{}
}

// IsSectorized reports whether rawURL is a sectorized entity page.
func (h Hierarchy) IsSectorized(rawURL string) bool {
	_, ok := h.Sectorized[rawURL]
	return ok
}

// Municipal is the three-level layout of the municipal elections site:
// department index → one page per initial letter → one page per commune.
func Municipal(baseURL string, sectorized []string, noResultsMarker string) (Hierarchy, error) {
	if noResultsMarker == "" {
		noResultsMarker = NoResultsMarker
	}
	set, err := resolveAll(baseURL, sectorized)
	if err != nil {
		return Hierarchy{}, err
	}
	return Hierarchy{
		Name:              "municipales",
		RootLevel:         election.LevelIndex,
		IntermediateLevel: election.LevelLetterIndex,
		TerminalLevel:     election.LevelEntity,
		// the first two anchors lead home and to the department, the last one to the legal notice
		IndexLocator:    links.PageAnchors("letter-index", 2, 1),
		TerminalLocator: links.Table("commune-index", "table table-bordered tableau-communes", 2, noResultsMarker),
		SectorLocator:   links.TableAnchors("sector-index", "table table-bordered tableau-candidats"),
		Sectorized:      set,
	}, nil
}

// Districts is the two-level layout of the legislative elections site:
// national index → department page → one page per district.
func Districts() Hierarchy {
	return Hierarchy{
		Name:              "legislatives",
		RootLevel:         election.LevelIndex,
		IntermediateLevel: election.LevelDepartment,
		TerminalLevel:     election.LevelDistrict,
		IndexLocator:      links.Select("department-select", ""),
		TerminalLocator:   links.Select("district-select", ""),
		Sectorized:        map[string]struct{}{},
	}
}

func resolveAll(baseURL string, refs []string) (map[string]struct{}, error) {
	base, err := url.Parse(ensureTrailingSlash(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	set := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		resolved, err := links.Resolve(base, ref)
		if err != nil {
			return nil, err
		}
		set[resolved] = struct{}{}
	}
	return set, nil
}

func ensureTrailingSlash(s string) string {
	if s == "" || s[len(s)-1] == '/' {
		return s
	}
	return s + "/"
}
