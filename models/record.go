// Package models defines data structures for the catalog crawler.
package models

import "time"

// CatalogRecord is one item card extracted from a listing page. PageNum is
// assigned by the traversal driver, everything else by the extractor.
type CatalogRecord struct {
	Title        string `csv:"title" json:"title"`
	PriceRaw     string `csv:"price_raw" json:"price_raw"`
	Availability string `csv:"availability" json:"availability"`
	Rating       string `csv:"rating" json:"rating"`
	ProductURL   string `csv:"product_url" json:"product_url"`
	PageNum      int    `csv:"page_num" json:"page_num"`
}

// StopReason records why a crawl run ended.
type StopReason string

const (
	// StopComplete means the pagination chain was followed to its end.
	StopComplete StopReason = "complete"
	// StopFetchFailed means a page fetch failed after exhausting retries
	// or hitting a non-retryable status.
	StopFetchFailed StopReason = "fetch_failed"
	// StopEmptyPage means a page parsed to zero item cards, which usually
	// signals an anti-bot block or a layout change.
	StopEmptyPage StopReason = "empty_page"
	// StopPageLimit means the configured page cap was reached.
	StopPageLimit StopReason = "page_limit"
	// StopCancelled means the caller's context was cancelled.
	StopCancelled StopReason = "cancelled"
)

// CrawlResult holds the outcome of one crawl run. Partial and empty record
// sets are valid, non-error outcomes; callers decide what to do with them.
type CrawlResult struct {
	Records   []CatalogRecord
	PageCount int
	StartTime time.Time
	EndTime   time.Time
	Stop      StopReason
	FailedURL string // set when Stop == StopFetchFailed
}
