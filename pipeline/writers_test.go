package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aluiziolira/go-catalog-crawler/models"
)

func sampleClean() []*CleanRecord {
	return []*CleanRecord{
		{
			CatalogRecord: models.CatalogRecord{
				Title:        "Book 1",
				PriceRaw:     "£10.00",
				Availability: "In stock",
				Rating:       "Two",
				ProductURL:   "http://example.test/book-1",
				PageNum:      1,
			},
			PriceGBP:      10,
			PriceParsed:   true,
			RatingNumeric: 2,
		},
		{
			CatalogRecord: models.CatalogRecord{
				Title:        "Book 2",
				PriceRaw:     "£5.50",
				Availability: "In stock",
				Rating:       "Five",
				ProductURL:   "http://example.test/book-2",
				PageNum:      2,
			},
			PriceGBP:      5.5,
			PriceParsed:   true,
			RatingNumeric: 5,
		},
	}
}

func TestCSVWriter(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "out", "books_clean.csv")

	writer, err := NewCSVWriter(filename)
	if err != nil {
		t.Fatalf("new csv writer: %v", err)
	}
	if err := writer.Write(sampleClean()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(filename)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2 records", len(rows))
	}
	if rows[0][0] != "title" || rows[0][2] != "price_gbp" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "Book 1" || rows[1][2] != "10.00" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	if rows[2][7] != "2" {
		t.Fatalf("page_num column = %q, want %q", rows[2][7], "2")
	}
}

func TestJSONWriterProducesJSONL(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "books_clean.json")

	writer, err := NewJSONWriter(filename)
	if err != nil {
		t.Fatalf("new json writer: %v", err)
	}
	if err := writer.Write(sampleClean()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}

	var decoded struct {
		Title    string  `json:"title"`
		PriceGBP float64 `json:"price_gbp"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &decoded); err != nil {
		t.Fatalf("unmarshal second line: %v", err)
	}
	if decoded.Title != "Book 2" || decoded.PriceGBP != 5.5 {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestDualWriterWritesBoth(t *testing.T) {
	dir := t.TempDir()
	csvFile := filepath.Join(dir, "books.csv")
	jsonFile := filepath.Join(dir, "books.json")

	writer, err := NewDualWriter(csvFile, jsonFile)
	if err != nil {
		t.Fatalf("new dual writer: %v", err)
	}
	if err := writer.Write(sampleClean()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	for _, name := range []string{csvFile, jsonFile} {
		info, err := os.Stat(name)
		if err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
		if info.Size() == 0 {
			t.Fatalf("%s is empty", name)
		}
	}
}

// The writers are used write-validate-close, in that order. Validate
// stats the open handle, so it must come before Close.
func TestWriterLifecycle(t *testing.T) {
	dir := t.TempDir()

	writers := map[string]OutputWriter{}

	csvWriter, err := NewCSVWriter(filepath.Join(dir, "books.csv"))
	if err != nil {
		t.Fatalf("new csv writer: %v", err)
	}
	writers["csv"] = csvWriter

	jsonWriter, err := NewJSONWriter(filepath.Join(dir, "books.json"))
	if err != nil {
		t.Fatalf("new json writer: %v", err)
	}
	writers["json"] = jsonWriter

	dualWriter, err := NewDualWriter(filepath.Join(dir, "dual.csv"), filepath.Join(dir, "dual.json"))
	if err != nil {
		t.Fatalf("new dual writer: %v", err)
	}
	writers["dual"] = dualWriter

	for name, writer := range writers {
		if err := writer.Write(sampleClean()); err != nil {
			t.Fatalf("%s write: %v", name, err)
		}
		if err := writer.Validate(); err != nil {
			t.Fatalf("%s validate after write: %v", name, err)
		}
		if err := writer.Close(); err != nil {
			t.Fatalf("%s close: %v", name, err)
		}
		if err := writer.Validate(); err == nil {
			t.Fatalf("%s validate after close succeeded, want error", name)
		}
	}
}

func TestValidateRejectsHeaderOnlyOutput(t *testing.T) {
	dir := t.TempDir()

	csvWriter, err := NewCSVWriter(filepath.Join(dir, "empty.csv"))
	if err != nil {
		t.Fatalf("new csv writer: %v", err)
	}
	defer csvWriter.Close()
	if err := csvWriter.Validate(); err == nil {
		t.Fatal("csv validate with no records succeeded, want error")
	}

	jsonWriter, err := NewJSONWriter(filepath.Join(dir, "empty.json"))
	if err != nil {
		t.Fatalf("new json writer: %v", err)
	}
	defer jsonWriter.Close()
	if err := jsonWriter.Validate(); err == nil {
		t.Fatal("json validate with no records succeeded, want error")
	}
}

func TestWriteRawCSV(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "books_raw.csv")

	records := []models.CatalogRecord{
		{Title: "Raw", PriceRaw: "£1.00", Availability: "In stock", Rating: "One", ProductURL: "http://x/raw", PageNum: 1},
	}
	if err := WriteRawCSV(filename, records); err != nil {
		t.Fatalf("write raw: %v", err)
	}

	f, err := os.Open(filename)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1 record", len(rows))
	}
	if rows[1][1] != "£1.00" {
		t.Fatalf("price column = %q, want verbatim raw text", rows[1][1])
	}
}

func TestWriteRawCSVEmptyIsValid(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "books_raw.csv")
	if err := WriteRawCSV(filename, nil); err != nil {
		t.Fatalf("write raw with no records: %v", err)
	}
}
