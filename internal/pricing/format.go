package pricing

import "github.com/shopspring/decimal"

// FormatGBP renders an amount as pounds with two decimal places.
func FormatGBP(d decimal.Decimal) string {
	return "£" + d.StringFixed(places)
}
