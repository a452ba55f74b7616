package enums

import "fmt"

// StockScope is the level a form's stock caps apply at.
type StockScope string

const (
	StockScopeNone    StockScope = "none"
	StockScopeOverall StockScope = "overall"
	StockScopeGroup   StockScope = "group"
	StockScopeVariant StockScope = "variant"
)

var validStockScopes = []StockScope{
	StockScopeNone,
	StockScopeOverall,
	StockScopeGroup,
	StockScopeVariant,
}

// String implements fmt.Stringer.
func (s StockScope) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockScope.
func (s StockScope) IsValid() bool {
	for _, candidate := range validStockScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockScope converts raw input into a StockScope.
func ParseStockScope(value string) (StockScope, error) {
	for _, candidate := range validStockScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock scope %q", value)
}
