package walker

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/JakeFAU/election-results-scraper/internal/diagnostics"
	"github.com/JakeFAU/election-results-scraper/internal/election"
	"github.com/JakeFAU/election-results-scraper/internal/links"
	"github.com/JakeFAU/election-results-scraper/internal/markup"
	"github.com/JakeFAU/election-results-scraper/internal/metrics"
)

// Loader fetches and parses a page.
type Loader interface {
	Load(ctx context.Context, page election.PageDescriptor) (*markup.Document, error)
}

// Walker enumerates terminal pages depth-first.
type Walker struct {
	loader    Loader
	hierarchy Hierarchy
	diag      diagnostics.Sink
	logger    *zap.Logger
}

// New constructs a Walker.
func New(loader Loader, hierarchy Hierarchy, diag diagnostics.Sink, logger *zap.Logger) *Walker {
	if diag == nil {
		diag = diagnostics.Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{
		loader:    loader,
		hierarchy: hierarchy,
		diag:      diag,
		logger:    logger,
	}
}

// Walk returns every terminal page reachable from rootURL in traversal order.
// Only a failure on the root page is returned; intermediate pages that fail
// are reported to the diagnostics sink and skipped.
func (w *Walker) Walk(ctx context.Context, rootURL string) ([]election.PageDescriptor, error) {
	h := w.hierarchy
	root := election.PageDescriptor{URL: rootURL, Level: h.RootLevel}
	children, err := w.links(ctx, root, h.IndexLocator)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", rootURL, err)
	}
	w.logger.Info("root index enumerated", zap.String("url", rootURL), zap.Int("children", len(children)))

	var out []election.PageDescriptor
	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("walk canceled: %w", err)
		}
		sub := election.PageDescriptor{URL: child, Level: h.IntermediateLevel}
		terminals, err := w.links(ctx, sub, h.TerminalLocator)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("walk canceled: %w", ctx.Err())
			}
			w.skip(sub, err)
			continue
		}
		for _, terminal := range terminals {
			out = append(out, w.expand(ctx, election.PageDescriptor{URL: terminal, Level: h.TerminalLevel})...)
		}
	}
	w.logger.Info("walk finished", zap.String("url", rootURL), zap.Int("terminal_pages", len(out)))
	return out, nil
}

// WalkEntity starts from a single entity page. Sectorized entities are
// expanded and a failure to do so is returned, since there is nothing else to
// fall back to.
func (w *Walker) WalkEntity(ctx context.Context, entityURL string) ([]election.PageDescriptor, error) {
	page := election.PageDescriptor{URL: entityURL, Level: w.hierarchy.TerminalLevel}
	if !w.hierarchy.IsSectorized(entityURL) {
		return []election.PageDescriptor{page}, nil
	}
	sectors, err := w.sectors(ctx, entityURL)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", entityURL, err)
	}
	return sectors, nil
}

func (w *Walker) expand(ctx context.Context, page election.PageDescriptor) []election.PageDescriptor {
	if !w.hierarchy.IsSectorized(page.URL) {
		return []election.PageDescriptor{page}
	}
	sectors, err := w.sectors(ctx, page.URL)
	if err != nil {
		w.skip(election.PageDescriptor{URL: page.URL, Level: election.LevelSectorizedEntity}, err)
		return nil
	}
	return sectors
}

func (w *Walker) sectors(ctx context.Context, entityURL string) ([]election.PageDescriptor, error) {
	entity := election.PageDescriptor{URL: entityURL, Level: election.LevelSectorizedEntity}
	refs, err := w.links(ctx, entity, w.hierarchy.SectorLocator)
	if err != nil {
		return nil, err
	}
	out := make([]election.PageDescriptor, 0, len(refs))
	for _, ref := range refs {
		out = append(out, election.PageDescriptor{URL: ref, Level: election.LevelSector})
	}
	w.logger.Debug("sectorized entity expanded", zap.String("url", entityURL), zap.Int("sectors", len(out)))
	return out, nil
}

func (w *Walker) links(ctx context.Context, page election.PageDescriptor, loc links.Locator) ([]string, error) {
	base, err := url.Parse(page.URL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := w.loader.Load(ctx, page)
	if err != nil {
		return nil, err
	}
	return links.Extract(doc, loc, base)
}

func (w *Walker) skip(page election.PageDescriptor, err error) {
	rec := diagnostics.NewRecord(diagnostics.StageDiscover, page, err)
	metrics.ObserveSkip(string(rec.Stage), string(rec.Reason))
	w.diag.Report(rec)
}
