package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/occasion-scraper/internal/dataset"
	"github.com/maltedev/occasion-scraper/internal/fetch"
	"github.com/maltedev/occasion-scraper/internal/models"
	"github.com/maltedev/occasion-scraper/internal/parser"
	"github.com/maltedev/occasion-scraper/internal/storage"
)

// RunSummary describes one finished run.
type RunSummary struct {
	RunID              uuid.UUID
	PagesRequested     int
	PagesFetched       int
	URLsDiscovered     int
	RecordsWritten     int
	FetchFailures      int
	ExtractionFailures int
	StartedAt          time.Time
	FinishedAt         time.Time
}

// Failures is the total number of detail URLs that produced no record.
func (s *RunSummary) Failures() int {
	return s.FetchFailures + s.ExtractionFailures
}

type Runner struct {
	crawler   *IndexCrawler
	pipeline  *Pipeline
	primary   storage.Sink
	secondary []storage.Sink
	logger    *slog.Logger
	now       func() time.Time
}

// NewRunner wires the phases of a crawl. The primary sink must succeed for a
// run to count; secondary sinks are written after it.
func NewRunner(crawler *IndexCrawler, pipeline *Pipeline, primary storage.Sink, secondary []storage.Sink, logger *slog.Logger) *Runner {
	return &Runner{
		crawler:   crawler,
		pipeline:  pipeline,
		primary:   primary,
		secondary: secondary,
		logger:    logger.With("component", "runner"),
		now:       time.Now,
	}
}

// Run crawls the index pages, fetches every discovered listing and hands the
// dataset to the sinks. It fails with ErrSiteUnreachable when not a single
// index page could be fetched, and with the sink's error when the primary sink
// fails; no dataset is written in either case. Secondary sink failures are
// joined and returned together with the summary. Cancelling ctx stops the
// crawl, but whatever was extracted until then is still written.
func (r *Runner) Run(ctx context.Context, template string, pages int) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:          uuid.New(),
		PagesRequested: pages,
		StartedAt:      r.now(),
	}
	log := r.logger.With("run_id", summary.RunID)
	log.Info("starting run", "pages", pages)

	index := r.crawler.Crawl(ctx, template, pages)
	summary.PagesFetched = index.PagesFetched
	summary.URLsDiscovered = len(index.URLs)

	if pages > 0 && index.PagesFetched == 0 {
		summary.FinishedAt = r.now()
		err := fmt.Errorf("%w: %d of %d pages failed", ErrSiteUnreachable, index.PagesFailed, pages)
		if len(index.Failures) > 0 {
			err = fmt.Errorf("%w, first error: %w", err, index.Failures[0])
		}
		return summary, err
	}

	results := r.pipeline.Run(ctx, index.URLs)
	countFailures(summary, results)

	d := dataset.Assemble(dataset.Meta{
		RunID:       summary.RunID,
		StartedAt:   summary.StartedAt,
		CompletedAt: r.now(),
	}, results)
	summary.RecordsWritten = d.Len()

	// An interrupt stops fetching, not saving what was already extracted.
	writeCtx := context.WithoutCancel(ctx)

	if err := r.primary.Write(writeCtx, d); err != nil {
		summary.FinishedAt = r.now()
		log.Error("failed to write dataset", "sink", r.primary.Name(), "error", err)
		return summary, fmt.Errorf("failed to write %s sink: %w", r.primary.Name(), err)
	}

	var sinkErrs []error
	for _, sink := range r.secondary {
		if err := sink.Write(writeCtx, d); err != nil {
			log.Error("failed to write dataset", "sink", sink.Name(), "error", err)
			sinkErrs = append(sinkErrs, fmt.Errorf("failed to write %s sink: %w", sink.Name(), err))
		}
	}

	summary.FinishedAt = r.now()
	log.Info("run finished",
		"pages_fetched", summary.PagesFetched,
		"urls", summary.URLsDiscovered,
		"records", summary.RecordsWritten,
		"fetch_failures", summary.FetchFailures,
		"extraction_failures", summary.ExtractionFailures,
		"duration", summary.FinishedAt.Sub(summary.StartedAt))

	return summary, errors.Join(sinkErrs...)
}

func countFailures(summary *RunSummary, results []models.ScrapeResult) {
	for _, res := range results {
		if res.Success() {
			continue
		}
		var fetchErr *fetch.Error
		var extractErr *parser.ExtractionError
		switch {
		case errors.As(res.Err, &fetchErr):
			summary.FetchFailures++
		case errors.As(res.Err, &extractErr):
			summary.ExtractionFailures++
		default:
			summary.FetchFailures++
		}
	}
}
