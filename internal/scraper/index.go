package scraper

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/maltedev/occasion-scraper/internal/fetch"
	"github.com/maltedev/occasion-scraper/internal/parser"
)

// IndexResult is what a crawl of the index pages produced. URLs keep
// discovery order and are not deduplicated: a listing linked from two pages
// appears twice and is fetched twice downstream.
type IndexResult struct {
	URLs         []string
	PagesFetched int
	PagesFailed  int
	Failures     []error
}

type IndexCrawler struct {
	fetcher fetch.Fetcher
	parser  parser.Parser
	origin  *url.URL
	logger  *slog.Logger
}

func NewIndexCrawler(f fetch.Fetcher, p parser.Parser, origin *url.URL, logger *slog.Logger) *IndexCrawler {
	return &IndexCrawler{
		fetcher: f,
		parser:  p,
		origin:  origin,
		logger:  logger.With("component", "index_crawler"),
	}
}

// Crawl visits pages 1..pages in order, one at a time. A page that fails to
// fetch or parse is logged and skipped.
func (c *IndexCrawler) Crawl(ctx context.Context, template string, pages int) *IndexResult {
	result := &IndexResult{}

	for n := 1; n <= pages; n++ {
		if ctx.Err() != nil {
			c.logger.Warn("crawl interrupted", "page", n, "error", ctx.Err())
			break
		}

		pageURL := PageURL(template, n)
		c.logger.Info("fetching main page", "url", pageURL, "page", n)

		html, err := c.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			c.logger.Warn("failed to fetch main page", "url", pageURL, "page", n, "error", err)
			result.PagesFailed++
			result.Failures = append(result.Failures, err)
			continue
		}

		page, err := c.parser.ParseIndexPage(html)
		if err != nil {
			c.logger.Warn("failed to parse main page", "url", pageURL, "page", n, "error", err)
			result.PagesFailed++
			result.Failures = append(result.Failures, err)
			continue
		}
		result.PagesFetched++

		for _, href := range page.Hrefs {
			abs, ok := c.resolve(href)
			if !ok {
				c.logger.Debug("skipping malformed listing link", "page", n, "href", href)
				continue
			}
			result.URLs = append(result.URLs, abs)
		}
		if page.Skipped > 0 {
			c.logger.Debug("skipped listings without link", "page", n, "count", page.Skipped)
		}
	}

	c.logger.Info("found car URLs", "count", len(result.URLs), "pages_fetched", result.PagesFetched, "pages_failed", result.PagesFailed)
	return result
}

func (c *IndexCrawler) resolve(href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := c.origin.ResolveReference(ref)
	if abs.Host == "" {
		return "", false
	}
	return abs.String(), true
}
