package enums

import "fmt"

// StockAccounting selects how historical orders are weighed against caps.
//
// Live multiplies stored quantities by each variant's current item count and
// ignores slugs whose variant has been deleted. Frozen uses the item counts
// captured on the submission when it was placed, so deleted or re-weighted
// variants keep consuming the stock they consumed at order time.
type StockAccounting string

const (
	StockAccountingLive   StockAccounting = "live"
	StockAccountingFrozen StockAccounting = "frozen"
)

var validStockAccountings = []StockAccounting{
	StockAccountingLive,
	StockAccountingFrozen,
}

// String implements fmt.Stringer.
func (s StockAccounting) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockAccounting.
func (s StockAccounting) IsValid() bool {
	for _, candidate := range validStockAccountings {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockAccounting converts raw input into a StockAccounting. Empty input
// maps to live.
func ParseStockAccounting(value string) (StockAccounting, error) {
	if value == "" {
		return StockAccountingLive, nil
	}
	for _, candidate := range validStockAccountings {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock accounting %q", value)
}
