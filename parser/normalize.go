package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var nonPricePattern = regexp.MustCompile(`[^0-9.]`)

// ParsePrice extracts the numeric value from raw price text, e.g.
// "£51.77" -> 51.77. Currency symbols and any other non-numeric noise are
// stripped before parsing.
func ParsePrice(raw string) (float64, error) {
	cleaned := nonPricePattern.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0, fmt.Errorf("no numeric price in %q", raw)
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", raw, err)
	}
	return value, nil
}

// NormalizeSpace collapses all runs of whitespace to single spaces and
// trims the ends, matching how availability text is scattered across
// nested markup.
func NormalizeSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// RatingToNumeric converts the textual rating to a numeric scale.
func RatingToNumeric(rating string) int {
	switch strings.TrimSpace(rating) {
	case "Zero":
		return 0
	case "One":
		return 1
	case "Two":
		return 2
	case "Three":
		return 3
	case "Four":
		return 4
	case "Five":
		return 5
	default:
		return 0
	}
}
