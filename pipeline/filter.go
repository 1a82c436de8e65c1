package pipeline

import "strings"

// FilterForSink selects the subset worth loading into the durable sink:
// records that are in stock and priced below priceLimit. Records whose
// price text never parsed are excluded.
func FilterForSink(records []*CleanRecord, priceLimit float64) []*CleanRecord {
	var out []*CleanRecord
	for _, rec := range records {
		if !strings.Contains(strings.ToLower(rec.Availability), "in stock") {
			continue
		}
		if !rec.PriceParsed || rec.PriceGBP >= priceLimit {
			continue
		}
		out = append(out, rec)
	}
	return out
}
