package scraper

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice keeps only the ASCII digits of text, reads them as an integer
// number of cents and returns the amount in whole units:
// "$1,234.56" -> 1234.56, "17523" -> 175.23.
func ParsePrice(text string) (decimal.Decimal, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return decimal.Zero, fmt.Errorf("%w in %q", ErrNoDigits, text)
	}
	cents, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", text, err)
	}
	return cents.Shift(-2), nil
}
