// Package sitefixture serves canned results-site pages from memory. It backs
// the tests of the walker, extractor, assembler and pipeline.
package sitefixture

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/JakeFAU/election-results-scraper/internal/election"
)

// Base is the URL prefix used by the fixtures.
const Base = "https://elections.example/municipales-2020"

// Site is an in-memory election.Fetcher.
type Site struct {
	mu     sync.Mutex
	pages  map[string]string
	fails  map[string]error
	visits map[string]int
}

// New returns an empty Site.
func New() *Site {
	return &Site{
		pages:  map[string]string{},
		fails:  map[string]error{},
		visits: map[string]int{},
	}
}

// Add serves html at url.
func (s *Site) Add(url, html string) *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = html
	return s
}

// Fail makes url return a transport error.
func (s *Site) Fail(url string, err error) *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		err = errors.New("connection reset by peer")
	}
	s.fails[url] = err
	return s
}

// Visits returns how many times url was fetched.
func (s *Site) Visits(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visits[url]
}

// Fetch implements election.Fetcher.
func (s *Site) Fetch(ctx context.Context, url string) (election.Page, error) {
	if err := ctx.Err(); err != nil {
		return election.Page{}, &election.TransportError{URL: url, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits[url]++
	if err, ok := s.fails[url]; ok {
		return election.Page{}, &election.TransportError{URL: url, Err: err}
	}
	html, ok := s.pages[url]
	if !ok {
		return election.Page{}, &election.TransportError{
			URL:        url,
			StatusCode: http.StatusNotFound,
			Err:        errors.New(http.StatusText(http.StatusNotFound)),
		}
	}
	return election.Page{URL: url, StatusCode: http.StatusOK, Body: []byte(html)}, nil
}

// DepartmentIndex renders a department page linking to letter pages.
func DepartmentIndex(letterHrefs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><a href="../index.html">Accueil</a><a href="index.html">Département</a>`)
	for _, href := range letterHrefs {
		fmt.Fprintf(&b, `<a href="%s">%s</a>`, href, href)
	}
	b.WriteString(`<a href="../mentions.html">Mentions légales</a></body></html>`)
	return b.String()
}

// Commune is one row of a letter page; an empty Href renders the
// no-results marker.
type Commune struct {
	Name string
	Href string
}

// LetterIndex renders a letter page listing communes.
func LetterIndex(communes ...Commune) string {
	var b strings.Builder
	b.WriteString(`<html><body><table class="table table-bordered tableau-communes">`)
	b.WriteString(`<tr><th>Commune</th><th>Code</th><th>Résultats</th></tr>`)
	for _, c := range communes {
		link := "Aucun résultat reçu"
		if c.Href != "" {
			link = fmt.Sprintf(`<a href="%s">%s</a>`, c.Href, c.Name)
		}
		fmt.Fprintf(&b, `<tr><td>%s</td><td>000</td><td>%s</td></tr>`, c.Name, link)
	}
	b.WriteString(`</table></body></html>`)
	return b.String()
}

// SectorIndex renders a sectorized city page linking to its sectors.
func SectorIndex(sectorHrefs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table class="table table-bordered tableau-candidats">`)
	for i, href := range sectorHrefs {
		fmt.Fprintf(&b, `<tr><td><a href="%s">Secteur %d</a></td></tr>`, href, i+1)
	}
	b.WriteString(`</table></body></html>`)
	return b.String()
}

// ListResults renders a list-ballot results page. Every row must have
// len(header) cells.
func ListResults(banner string, header []string, rows ...[]string) string {
	return resultsPage(banner, "tableau-resultats-listes", header, rows)
}

// MajorityResults renders a majority-ballot results page.
func MajorityResults(banner string, rows ...[]string) string {
	header := []string{"Candidats", "Voix", "% Inscrits", "% Exprimés", "Elu(e)"}
	return resultsPage(banner, "tableau-resultats-maj", header, rows)
}

func resultsPage(banner, class string, header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<div class=\"row-fluid pub-resultats-entete\"><h3>\n\t\t%s\n\t</h3></div>", banner)
	fmt.Fprintf(&b, `<table class="table table-bordered %s"><thead><tr>`, class)
	for _, h := range header {
		fmt.Fprintf(&b, "\n<th>%s</th>", h)
	}
	b.WriteString("\n</tr></thead><tbody>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			fmt.Fprintf(&b, "<td>%s</td>", cell)
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table></body></html>")
	return b.String()
}

// SelectIndex renders a page whose dropdown links to child pages.
func SelectIndex(hrefs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><select class="form-control"><option value="">Choisir</option>`)
	for _, href := range hrefs {
		fmt.Fprintf(&b, `<option value="%s">%s</option>`, href, href)
	}
	b.WriteString(`</select></body></html>`)
	return b.String()
}

// DistrictResults renders a flat district page.
func DistrictResults(header []string, rows ...[]string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table class="table"><tr>`)
	for _, h := range header {
		fmt.Fprintf(&b, "<th>%s</th>", h)
	}
	b.WriteString("</tr>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			fmt.Fprintf(&b, "<td>%s</td>", cell)
		}
		b.WriteString("</tr>")
	}
	b.WriteString(`</table></body></html>`)
	return b.String()
}
