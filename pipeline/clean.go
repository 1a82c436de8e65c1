// Package pipeline cleans, validates, and persists the records produced by
// a crawl run.
package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aluiziolira/go-catalog-crawler/models"
	"github.com/aluiziolira/go-catalog-crawler/parser"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrEmptyDataset is returned when a crawl yields no records at all. The
// crawl itself treats emptiness as a valid outcome; the cleaning stage is
// where it becomes an error.
var ErrEmptyDataset = errors.New("pipeline: no records scraped")

// CleanRecord is a CatalogRecord with its price normalized to a number.
type CleanRecord struct {
	models.CatalogRecord
	PriceGBP      float64 `csv:"price_gbp" json:"price_gbp"`
	PriceParsed   bool    `csv:"-" json:"-"`
	RatingNumeric int     `csv:"rating_numeric" json:"rating_numeric"`
}

// Quality holds data-quality ratios computed over the raw record set.
type Quality struct {
	TitleRatio float64 // share of records with a non-empty title
	URLRatio   float64 // share of records with a non-empty product URL
	PriceRatio float64 // share of records whose price text parsed
}

// RatingSummary aggregates prices for one rating label.
type RatingSummary struct {
	Rating   string
	Count    int
	AvgPrice float64
	MinPrice float64
	MaxPrice float64
}

// Report is the output of the cleaning stage.
type Report struct {
	Records    []*CleanRecord // deduplicated, input order preserved
	Quality    Quality
	ByRating   []RatingSummary
	Duplicates int
}

// Clean normalizes prices, computes quality ratios over the full input,
// deduplicates by product URL, and aggregates prices per rating. The
// seen-URL set is bounded by dedupeMax.
func Clean(records []models.CatalogRecord, dedupeMax int) (*Report, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	seen, err := lru.New[string, struct{}](dedupeMax)
	if err != nil {
		return nil, fmt.Errorf("dedupe cache: %w", err)
	}

	report := &Report{}
	var titled, linked, priced int

	for _, rec := range records {
		clean := &CleanRecord{
			CatalogRecord: rec,
			RatingNumeric: parser.RatingToNumeric(rec.Rating),
		}
		if value, err := parser.ParsePrice(rec.PriceRaw); err == nil {
			clean.PriceGBP = value
			clean.PriceParsed = true
			priced++
		}
		if rec.Title != "" {
			titled++
		}
		if rec.ProductURL != "" {
			linked++
		}

		if _, dup := seen.Get(rec.ProductURL); dup {
			report.Duplicates++
			continue
		}
		seen.Add(rec.ProductURL, struct{}{})
		report.Records = append(report.Records, clean)
	}

	total := float64(len(records))
	report.Quality = Quality{
		TitleRatio: float64(titled) / total,
		URLRatio:   float64(linked) / total,
		PriceRatio: float64(priced) / total,
	}
	report.ByRating = aggregateByRating(report.Records)

	return report, nil
}

func aggregateByRating(records []*CleanRecord) []RatingSummary {
	type bucket struct {
		count  int
		priced int
		sum    float64
		min    float64
		max    float64
	}

	groups := make(map[string]*bucket)
	for _, rec := range records {
		b, ok := groups[rec.Rating]
		if !ok {
			b = &bucket{}
			groups[rec.Rating] = b
		}
		b.count++
		if !rec.PriceParsed {
			continue
		}
		if b.priced == 0 || rec.PriceGBP < b.min {
			b.min = rec.PriceGBP
		}
		if b.priced == 0 || rec.PriceGBP > b.max {
			b.max = rec.PriceGBP
		}
		b.priced++
		b.sum += rec.PriceGBP
	}

	out := make([]RatingSummary, 0, len(groups))
	for rating, b := range groups {
		summary := RatingSummary{
			Rating:   rating,
			Count:    b.count,
			MinPrice: b.min,
			MaxPrice: b.max,
		}
		if b.priced > 0 {
			summary.AvgPrice = b.sum / float64(b.priced)
		}
		out = append(out, summary)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Rating < out[j].Rating
	})
	return out
}
