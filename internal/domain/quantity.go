package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

var quantitySanitizer = strings.NewReplacer(",", "", "，", "", " ", "", " ", "")

// ParseQuantity parses a spreadsheet cell leniently.
// Blank or unparsable cells become zero and negative values are clamped to zero.
func ParseQuantity(raw string) decimal.Decimal {
	v := quantitySanitizer.Replace(strings.TrimSpace(raw))
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
