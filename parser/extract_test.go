package parser

import (
	"fmt"
	"strings"
	"testing"
)

const pageURL = "http://example.test/catalogue/page-1.html"

func buildCard(id int, rating string) string {
	var b strings.Builder
	b.WriteString(`<article class="product_pod">`)
	fmt.Fprintf(&b, `<h3><a href="book-%d/index.html" title="Book %d">Book %d...</a></h3>`, id, id, id)
	fmt.Fprintf(&b, `<p class="price_color">£%d.00</p>`, id)
	if rating != "" {
		fmt.Fprintf(&b, `<p class="star-rating %s"></p>`, rating)
	}
	b.WriteString("<p class=\"instock availability\">\n\n    In stock\n</p>")
	b.WriteString(`</article>`)
	return b.String()
}

func buildPage(cards []string, nextHref string) string {
	var b strings.Builder
	b.WriteString("<html><body><section>")
	for _, card := range cards {
		b.WriteString(card)
	}
	if nextHref != "" {
		fmt.Fprintf(&b, `<ul class="pager"><li class="next"><a href="%s">next</a></li></ul>`, nextHref)
	}
	b.WriteString("</section></body></html>")
	return b.String()
}

func TestExtractPageWellFormedCards(t *testing.T) {
	html := buildPage([]string{
		buildCard(1, "One"),
		buildCard(2, "Three"),
		buildCard(3, "Five"),
	}, "page-2.html")

	records, nextURL, err := ExtractPage(html, pageURL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	for i, rec := range records {
		if rec.Title == "" {
			t.Errorf("record %d has empty title", i)
		}
		wantURL := fmt.Sprintf("http://example.test/catalogue/book-%d/index.html", i+1)
		if rec.ProductURL != wantURL {
			t.Errorf("record %d URL = %q, want %q", i, rec.ProductURL, wantURL)
		}
		if rec.PageNum != 0 {
			t.Errorf("record %d page = %d, extractor must not assign pages", i, rec.PageNum)
		}
	}

	if records[0].Title != "Book 1" {
		t.Errorf("title = %q, want %q (from the title attribute, not the anchor text)", records[0].Title, "Book 1")
	}
	if records[0].PriceRaw != "£1.00" {
		t.Errorf("price = %q, want verbatim %q", records[0].PriceRaw, "£1.00")
	}
	if records[0].Availability != "In stock" {
		t.Errorf("availability = %q, want whitespace-normalized %q", records[0].Availability, "In stock")
	}
	if records[1].Rating != "Three" {
		t.Errorf("rating = %q, want %q", records[1].Rating, "Three")
	}

	if want := "http://example.test/catalogue/page-2.html"; nextURL != want {
		t.Fatalf("nextURL = %q, want %q", nextURL, want)
	}
}

func TestExtractPageMissingRatingDefaultsEmpty(t *testing.T) {
	html := buildPage([]string{buildCard(1, "")}, "")

	records, _, err := ExtractPage(html, pageURL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].Rating != "" {
		t.Fatalf("rating = %q, want empty string when marker class is absent", records[0].Rating)
	}
}

func TestExtractPageMissingFieldsDegrade(t *testing.T) {
	html := buildPage([]string{`<article class="product_pod"><h3><a href="book-9/index.html">bare</a></h3></article>`}, "")

	records, _, err := ExtractPage(html, pageURL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1: partial cards must not fail the page", len(records))
	}

	rec := records[0]
	if rec.Title != "" || rec.PriceRaw != "" || rec.Availability != "" || rec.Rating != "" {
		t.Fatalf("missing fields should degrade to empty strings, got %+v", rec)
	}
	if want := "http://example.test/catalogue/book-9/index.html"; rec.ProductURL != want {
		t.Fatalf("product URL = %q, want %q", rec.ProductURL, want)
	}
}

func TestExtractPageNoNextAnchor(t *testing.T) {
	html := buildPage([]string{buildCard(1, "Two")}, "")

	_, nextURL, err := ExtractPage(html, pageURL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if nextURL != "" {
		t.Fatalf("nextURL = %q, want empty on the last page", nextURL)
	}
}

func TestExtractPageAbsoluteNextHref(t *testing.T) {
	html := buildPage([]string{buildCard(1, "Two")}, "http://other.test/page-9.html")

	_, nextURL, err := ExtractPage(html, pageURL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if want := "http://other.test/page-9.html"; nextURL != want {
		t.Fatalf("nextURL = %q, want %q", nextURL, want)
	}
}

func TestExtractPageEmpty(t *testing.T) {
	records, nextURL, err := ExtractPage("<html><body></body></html>", pageURL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 0 || nextURL != "" {
		t.Fatalf("empty page should yield no records and no next URL, got %d records, next %q", len(records), nextURL)
	}
}
