package scraper

import (
	"context"
	"log/slog"

	"github.com/maltedev/occasion-scraper/internal/fetch"
	"github.com/maltedev/occasion-scraper/internal/models"
	"github.com/maltedev/occasion-scraper/internal/parser"
	"golang.org/x/sync/errgroup"
)

// Pipeline fetches and extracts detail pages concurrently.
//
// With a limit of 0 every URL is dispatched at once, one goroutine and one
// open request per URL. That matches the site crawl this was built for but
// grows without bound with the URL count; set a positive limit to cap the
// number of in-flight tasks. The limit changes scheduling only: every URL is
// still attempted exactly once and failures stay independent.
type Pipeline struct {
	fetcher fetch.Fetcher
	parser  parser.Parser
	limit   int
	logger  *slog.Logger
}

func NewPipeline(f fetch.Fetcher, p parser.Parser, limit int, logger *slog.Logger) *Pipeline {
	if limit < 0 {
		limit = 0
	}
	return &Pipeline{
		fetcher: f,
		parser:  p,
		limit:   limit,
		logger:  logger.With("component", "detail_pipeline"),
	}
}

// Run returns one result per input URL, in completion order. It returns only
// after every dispatched task has finished.
func (p *Pipeline) Run(ctx context.Context, urls []string) []models.ScrapeResult {
	results := make(chan models.ScrapeResult, len(urls))

	var g errgroup.Group
	if p.limit > 0 {
		g.SetLimit(p.limit)
	}

	p.logger.Info("dispatching detail fetches", "count", len(urls), "limit", p.limit)

	for _, u := range urls {
		g.Go(func() error {
			results <- p.process(ctx, u)
			return nil
		})
	}

	// Tasks never return an error; failures travel inside the results.
	_ = g.Wait()
	close(results)

	out := make([]models.ScrapeResult, 0, len(urls))
	failed := 0
	for r := range results {
		if !r.Success() {
			failed++
		}
		out = append(out, r)
	}

	p.logger.Info("detail fetches settled", "succeeded", len(out)-failed, "failed", failed)
	return out
}

func (p *Pipeline) process(ctx context.Context, url string) models.ScrapeResult {
	html, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		p.logger.Warn("failed to fetch listing", "url", url, "error", err)
		return models.ScrapeResult{URL: url, Err: err}
	}

	record, err := p.parser.ParseDetailPage(html, url)
	if err != nil {
		p.logger.Warn("error parsing details", "url", url, "error", err)
		return models.ScrapeResult{URL: url, Err: err}
	}

	return models.ScrapeResult{URL: url, Record: record}
}
