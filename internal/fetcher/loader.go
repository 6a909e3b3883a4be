// Package fetcher turns URLs into parsed documents. Transport implementations
// live in sub-packages; Loader adds parsing, logging and metrics on top of any
// election.Fetcher.
package fetcher

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/election-results-scraper/internal/election"
	"github.com/JakeFAU/election-results-scraper/internal/markup"
	"github.com/JakeFAU/election-results-scraper/internal/metrics"
)

// Loader fetches and parses pages.
type Loader struct {
	fetcher election.Fetcher
	logger  *zap.Logger
}

// NewLoader wraps f.
func NewLoader(f election.Fetcher, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{fetcher: f, logger: logger}
}

// Load fetches page.URL and parses the body.
func (l *Loader) Load(ctx context.Context, page election.PageDescriptor) (*markup.Document, error) {
	start := time.Now()
	resp, err := l.fetcher.Fetch(ctx, page.URL)
	if err != nil {
		metrics.ObserveFetch(string(page.Level), string(election.Classify(err)), time.Since(start))
		return nil, fmt.Errorf("load %s: %w", page.URL, err)
	}
	metrics.ObserveFetch(string(page.Level), "ok", time.Since(start))
	l.logger.Debug("page fetched",
		zap.String("url", page.URL),
		zap.String("level", string(page.Level)),
		zap.Int("bytes", len(resp.Body)),
		zap.Duration("dur", time.Since(start)),
	)

	doc, err := markup.ParseBytes(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", page.URL, err)
	}
	return doc, nil
}
