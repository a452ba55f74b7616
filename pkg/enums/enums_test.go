package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStockAccountingDefaultsToLive(t *testing.T) {
	got, err := ParseStockAccounting("")
	require.NoError(t, err)
	assert.Equal(t, StockAccountingLive, got)

	got, err = ParseStockAccounting("frozen")
	require.NoError(t, err)
	assert.Equal(t, StockAccountingFrozen, got)

	_, err = ParseStockAccounting("weekly")
	assert.Error(t, err)
}

func TestSubmissionStatusLabels(t *testing.T) {
	cases := []struct {
		paid, shipped bool
		label, tone   string
	}{
		{false, false, "Payment pending", "danger"},
		{true, false, "Paid", "primary"},
		{true, true, "Paid and shipped", "success"},
		{false, true, "Payment pending", "danger"},
	}
	for _, tc := range cases {
		status := SubmissionStatusFor(tc.paid, tc.shipped)
		assert.Equal(t, tc.label, status.Label())
		assert.Equal(t, tc.tone, status.Tone())
	}
}

func TestParseBulkAction(t *testing.T) {
	for _, raw := range []string{"mark-paid", "mark-shipped", "mark-paid-and-shipped", "reset"} {
		action, err := ParseBulkAction(raw)
		require.NoError(t, err)
		assert.True(t, action.IsValid())
	}
	_, err := ParseBulkAction("delete")
	assert.Error(t, err)

	_, err = ParseStockScope("planet")
	assert.Error(t, err)
	assert.True(t, StockScopeGroup.IsValid())
}
