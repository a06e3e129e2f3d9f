package utils

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

func StrEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// FCurrency renders an amount with thousands separators and at most two
// decimals: 1234.5 -> "1,234.5", 100 -> "100".
func FCurrency(n decimal.Decimal) string {
	rounded := n.Round(2)
	if rounded.IsInteger() {
		return humanize.Comma(rounded.IntPart())
	}
	f, _ := rounded.Float64()
	return humanize.CommafWithDigits(f, 2)
}
