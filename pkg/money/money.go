// Package money holds the few places where integer cents meet decimals:
// rate multiplication and display formatting. Storage and arithmetic stay in
// integer minor units everywhere else.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseRate parses a non-negative decimal rate such as "0.08".
func ParseRate(raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse rate %q: %w", raw, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("rate %q must not be negative", raw)
	}
	return rate, nil
}

// ApplyRate returns round(cents * rate), rounding half away from zero.
func ApplyRate(cents int, rate decimal.Decimal) int {
	return int(decimal.NewFromInt(int64(cents)).Mul(rate).Round(0).IntPart())
}

// Format renders cents as a display string, e.g. 123456 -> "$1,234.56".
// Only USD symbols are known; other currencies render with their code.
func Format(cents int, currency string) string {
	amount := decimal.NewFromInt(int64(cents)).Div(hundred).StringFixed(2)

	negative := strings.HasPrefix(amount, "-")
	amount = strings.TrimPrefix(amount, "-")
	whole, frac, _ := strings.Cut(amount, ".")

	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	if strings.EqualFold(currency, "USD") || currency == "" {
		return fmt.Sprintf("%s$%s.%s", sign, grouped.String(), frac)
	}
	return fmt.Sprintf("%s%s.%s %s", sign, grouped.String(), frac, strings.ToUpper(currency))
}
