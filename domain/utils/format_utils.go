package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrency renders a signed USD amount with thousands separators, e.g. +$1,234.50 or -$300.00
func FormatCurrency(amount decimal.Decimal) string {
	sign := "+"
	if amount.IsNegative() {
		sign = "-"
	} else if amount.IsZero() {
		sign = ""
	}
	return sign + "$" + groupThousands(amount.Abs().StringFixed(2))
}

// FormatUSD renders an unsigned amount, e.g. $367.80
func FormatUSD(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-$" + groupThousands(amount.Abs().StringFixed(2))
	}
	return "$" + groupThousands(amount.StringFixed(2))
}

func groupThousands(fixed string) string {
	whole, frac, _ := strings.Cut(fixed, ".")
	if len(whole) <= 3 {
		return fixed
	}

	var b strings.Builder
	lead := len(whole) % 3
	if lead > 0 {
		b.WriteString(whole[:lead])
	}
	for i := lead; i < len(whole); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(whole[i : i+3])
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
