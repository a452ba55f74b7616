package enums

import "fmt"

// BulkAction is an administrative state change applied to many submissions.
type BulkAction string

const (
	BulkActionMarkPaid           BulkAction = "mark-paid"
	BulkActionMarkShipped        BulkAction = "mark-shipped"
	// BulkActionMarkPaidAndShipped marks paid first, then shipped.
	BulkActionMarkPaidAndShipped BulkAction = "mark-paid-and-shipped"
	BulkActionReset              BulkAction = "reset"
)

var validBulkActions = []BulkAction{
	BulkActionMarkPaid,
	BulkActionMarkShipped,
	BulkActionMarkPaidAndShipped,
	BulkActionReset,
}

// String implements fmt.Stringer.
func (b BulkAction) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BulkAction.
func (b BulkAction) IsValid() bool {
	for _, candidate := range validBulkActions {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBulkAction converts raw input into a BulkAction.
func ParseBulkAction(value string) (BulkAction, error) {
	for _, candidate := range validBulkActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bulk action %q", value)
}
