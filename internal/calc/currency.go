package calc

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NairaSymbol prefixes every formatted amount.
const NairaSymbol = "₦"

// FormatNaira renders an amount the way the bank displays money:
// ₦1,234,567.89, with a leading minus for negatives.
func FormatNaira(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if amount.Round(2).IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString(NairaSymbol)
	b.WriteString(groupThousands(whole))
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FormatRate renders an annual rate as "18% p.a.".
func FormatRate(rate decimal.Decimal) string {
	return rate.String() + "% p.a."
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
