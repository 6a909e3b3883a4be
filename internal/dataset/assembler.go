package dataset

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/election-results-scraper/internal/diagnostics"
	"github.com/JakeFAU/election-results-scraper/internal/election"
	"github.com/JakeFAU/election-results-scraper/internal/extract"
	"github.com/JakeFAU/election-results-scraper/internal/markup"
	"github.com/JakeFAU/election-results-scraper/internal/metrics"
)

// Loader fetches and parses a page.
type Loader interface {
	Load(ctx context.Context, page election.PageDescriptor) (*markup.Document, error)
}

// Extractor normalizes one parsed page.
type Extractor interface {
	Extract(doc *markup.Document, page election.PageDescriptor) (election.Table, extract.Layout, error)
}

// Stats counts what happened to the pages handed to Assemble.
type Stats struct {
	Pages      int
	Extracted  int
	Skipped    int
	Duplicates int
}

// Assembler extracts terminal pages and folds the results into a Dataset.
type Assembler struct {
	loader    Loader
	extractor Extractor
	diag      diagnostics.Sink
	logger    *zap.Logger
	workers   int
}

// NewAssembler constructs an Assembler. workers bounds the number of pages
// in flight; values below 2 process pages one at a time.
func NewAssembler(loader Loader, extractor Extractor, diag diagnostics.Sink, logger *zap.Logger, workers int) *Assembler {
	if diag == nil {
		diag = diagnostics.Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	return &Assembler{
		loader:    loader,
		extractor: extractor,
		diag:      diag,
		logger:    logger,
		workers:   workers,
	}
}

type outcome struct {
	table  election.Table
	layout extract.Layout
	err    error
}

// Assemble extracts every page and concatenates the tables in input order.
// A page that fails is reported and skipped. Only cancellation of ctx aborts
// the run. Each URL is extracted at most once.
func (a *Assembler) Assemble(ctx context.Context, pages []election.PageDescriptor) (*Dataset, Stats, error) {
	stats := Stats{Pages: len(pages)}
	unique := make([]election.PageDescriptor, 0, len(pages))
	seen := make(map[string]struct{}, len(pages))
	for _, p := range pages {
		if _, dup := seen[p.URL]; dup {
			stats.Duplicates++
			a.logger.Debug("duplicate terminal page ignored", zap.String("url", p.URL))
			continue
		}
		seen[p.URL] = struct{}{}
		unique = append(unique, p)
	}

	outcomes, err := a.run(ctx, unique)
	if err != nil {
		return nil, stats, err
	}

	ds := &Dataset{}
	for i, page := range unique {
		o := outcomes[i]
		if o.err == nil {
			o.err = ds.Append(o.table)
		}
		if o.err != nil {
			stats.Skipped++
			a.skip(page, o.err)
			continue
		}
		stats.Extracted++
		metrics.ObserveRows(string(o.layout), len(o.table.Rows))
	}
	a.logger.Info("dataset assembled",
		zap.Int("pages", stats.Pages),
		zap.Int("extracted", stats.Extracted),
		zap.Int("skipped", stats.Skipped),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("rows", ds.Len()),
	)
	return ds, stats, nil
}

func (a *Assembler) run(ctx context.Context, pages []election.PageDescriptor) ([]outcome, error) {
	outcomes := make([]outcome, len(pages))
	if a.workers == 1 {
		for i, page := range pages {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("assemble canceled: %w", err)
			}
			outcomes[i] = a.one(ctx, page)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("assemble canceled: %w", err)
		}
		return outcomes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, page := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = a.one(gctx, page)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assemble canceled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("assemble canceled: %w", err)
	}
	return outcomes, nil
}

func (a *Assembler) one(ctx context.Context, page election.PageDescriptor) outcome {
	doc, err := a.loader.Load(ctx, page)
	if err != nil {
		return outcome{err: err}
	}
	table, layout, err := a.extractor.Extract(doc, page)
	if err != nil {
		return outcome{layout: layout, err: fmt.Errorf("extract %s: %w", page.URL, err)}
	}
	return outcome{table: table, layout: layout}
}

func (a *Assembler) skip(page election.PageDescriptor, err error) {
	rec := diagnostics.NewRecord(diagnostics.StageExtract, page, err)
	metrics.ObserveSkip(string(rec.Stage), string(rec.Reason))
	a.diag.Report(rec)
}
