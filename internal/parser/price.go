package parser

import (
	"math"
	"strconv"
	"strings"
)

const (
	// CurrencyMarker must appear in a field for it to be read as a price
	CurrencyMarker = "$"
	// NoPrice is the placeholder the sheets use for "not offered"
	NoPrice = "-"
)

// ParsePrice converts a price field such as "$ 12.345,50" into 12345.5.
//
// Fields without the currency marker are never trusted as prices: bare
// numbers in these sheets are usually units or codes. Periods are thousands
// separators and the comma is the decimal separator.
func ParsePrice(field string) (float64, bool) {
	trimmed := strings.TrimSpace(field)
	if trimmed == "" {
		return 0, false
	}
	if !strings.Contains(trimmed, CurrencyMarker) && trimmed != NoPrice {
		return 0, false
	}

	clean := strings.TrimSpace(strings.Replace(trimmed, CurrencyMarker, "", 1))
	if clean == NoPrice || clean == "" {
		return 0, false
	}

	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.Replace(clean, ",", ".", 1)

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// PricePtr is ParsePrice returning nil for absent prices
func PricePtr(field string) *float64 {
	v, ok := ParsePrice(field)
	if !ok {
		return nil
	}
	return &v
}

// isPriceLike reports whether a field holds a price or the no-price placeholder
func isPriceLike(field string) bool {
	return field == "" || field == NoPrice || strings.Contains(field, CurrencyMarker)
}
