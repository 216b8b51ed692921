package dashboard

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrency renders amount as US dollars, e.g. -$1,234.50.
func FormatCurrency(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole, frac, _ := strings.Cut(d.StringFixed(2), ".")
	return sign + "$" + groupThousands(whole) + "." + frac
}

// FormatNumber renders n with thousands separators.
func FormatNumber(n int) string {
	digits := strconv.Itoa(n)
	if unsigned, ok := strings.CutPrefix(digits, "-"); ok {
		return "-" + groupThousands(unsigned)
	}
	return groupThousands(digits)
}

// FormatPercent renders a ratio with one decimal, e.g. 0.1234 as 12.3%.
func FormatPercent(ratio float64) string {
	return decimal.NewFromFloat(ratio).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var sb strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		sb.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}
