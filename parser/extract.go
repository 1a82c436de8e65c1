// Package parser turns catalog listing HTML into typed records. It performs
// no I/O: given the same document and page URL it always produces the same
// output, which keeps the extraction deterministic under test.
package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-catalog-crawler/models"
)

// ExtractPage parses one listing page into item records plus the absolute
// URL of the next page ("" on the last page). Missing optional fields
// degrade to empty strings rather than failing the page; the returned
// records carry no page number, the driver assigns that.
func ExtractPage(htmlText, pageURL string) ([]models.CatalogRecord, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return nil, "", fmt.Errorf("parse html: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse page url %q: %w", pageURL, err)
	}

	var records []models.CatalogRecord
	doc.Find("article.product_pod").Each(func(_ int, card *goquery.Selection) {
		link := card.Find("h3 a").First()
		title := strings.TrimSpace(link.AttrOr("title", ""))
		href := strings.TrimSpace(link.AttrOr("href", ""))

		availability := card.Find("p.instock.availability").First().Text()
		if strings.TrimSpace(availability) == "" {
			availability = card.Find("p.availability").First().Text()
		}

		records = append(records, models.CatalogRecord{
			Title:        title,
			PriceRaw:     strings.TrimSpace(card.Find("p.price_color").First().Text()),
			Availability: NormalizeSpace(availability),
			Rating:       ratingClass(card),
			ProductURL:   resolveRef(base, href),
		})
	})

	nextURL := ""
	if href, ok := doc.Find("li.next > a").First().Attr("href"); ok {
		nextURL = resolveRef(base, strings.TrimSpace(href))
	}

	return records, nextURL, nil
}

// ratingClass returns the non-constant class token on the star-rating
// marker, e.g. "Three" from class="star-rating Three".
func ratingClass(card *goquery.Selection) string {
	class, ok := card.Find("p.star-rating").First().Attr("class")
	if !ok {
		return ""
	}
	for _, token := range strings.Fields(class) {
		if token != "star-rating" {
			return token
		}
	}
	return ""
}

func resolveRef(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
