// Package crawler implements the fetch-and-paginate core: a retrying
// fetcher and a sequential traversal driver that walks the catalog's
// pagination chain one page at a time.
package crawler

import (
	"context"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-catalog-crawler/config"
	"github.com/aluiziolira/go-catalog-crawler/models"
	"github.com/aluiziolira/go-catalog-crawler/parser"
)

// Crawler walks the pagination chain and accumulates records. One Crawler
// drives one run; it owns the URL cursor, the page counter, and the
// accumulator for the duration of that run.
type Crawler struct {
	cfg     *config.Config
	fetcher PageFetcher
	waiter  Waiter
	metrics *Metrics
}

// New builds a traversal driver. The waiter is injected so tests can
// substitute a no-op for the politeness delay.
func New(cfg *config.Config, fetcher PageFetcher, waiter Waiter, metrics *Metrics) *Crawler {
	return &Crawler{
		cfg:     cfg,
		fetcher: fetcher,
		waiter:  waiter,
		metrics: metrics,
	}
}

// Run crawls from the configured entry point until the chain ends or a
// terminal condition stops it early. Every failure mode resolves to a
// partial result, never an error: emptiness is the caller's problem.
func (c *Crawler) Run(ctx context.Context) *models.CrawlResult {
	result := &models.CrawlResult{
		StartTime: time.Now(),
		Stop:      models.StopComplete,
	}

	currentURL := c.cfg.StartURL()
	pageNum := 0

	for currentURL != "" {
		if ctx.Err() != nil {
			result.Stop = models.StopCancelled
			break
		}
		if pageNum >= c.cfg.MaxPages {
			result.Stop = models.StopPageLimit
			slog.Warn("page limit reached", slog.Int("max_pages", c.cfg.MaxPages))
			break
		}

		pageNum++
		slog.Info("fetching page", slog.Int("page", pageNum), slog.String("url", currentURL))

		body, err := c.fetcher.Fetch(ctx, currentURL)
		if err != nil {
			if ctx.Err() != nil {
				result.Stop = models.StopCancelled
			} else {
				result.Stop = models.StopFetchFailed
				result.FailedURL = currentURL
			}
			slog.Warn("stopping: page fetch failed",
				slog.String("url", currentURL),
				slog.Any("error", err),
			)
			break
		}

		records, nextURL, err := parser.ExtractPage(body, currentURL)
		if err != nil || len(records) == 0 {
			// Likely an anti-bot block or a layout break; either way the
			// chain cannot be trusted past this point.
			result.Stop = models.StopEmptyPage
			slog.Warn("stopping: no records on page",
				slog.Int("page", pageNum),
				slog.String("url", currentURL),
				slog.Any("error", err),
			)
			break
		}

		for i := range records {
			records[i].PageNum = pageNum
		}
		result.Records = append(result.Records, records...)
		result.PageCount = pageNum
		c.metrics.IncPage()
		c.metrics.AddRecords(len(records))

		c.waiter.Wait(ctx, c.cfg.MinDelay, c.cfg.MaxDelay)
		currentURL = nextURL
	}

	result.EndTime = time.Now()
	slog.Info("crawl finished",
		slog.Int("pages", result.PageCount),
		slog.Int("records", len(result.Records)),
		slog.String("stop", string(result.Stop)),
	)
	return result
}
