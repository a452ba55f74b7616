package stock

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pins-charity/orderforms-backend/internal/catalog"
	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	"github.com/pins-charity/orderforms-backend/pkg/enums"
)

func intPtr(v int) *int { return &v }

func variant(group, name string, itemCount int) models.ProductVariant {
	return models.ProductVariant{
		GroupName:       group,
		Name:            name,
		Slug:            catalog.BaseSlug(group, name),
		UnitCost:        decimal.NewFromInt(5),
		ItemCount:       itemCount,
		QuantityChoices: models.DefaultQuantityChoices,
	}
}

func submission(ref string, selection map[string]any) models.OrderSubmission {
	return models.OrderSubmission{Reference: ref, Selection: selection}
}

func TestNoCapsAlwaysValid(t *testing.T) {
	mug := variant("", "Mug", 1)
	ledger := NewLedger(catalog.New(models.OrderForm{Variants: []models.ProductVariant{mug}}), enums.StockAccountingLive, []models.OrderSubmission{
		submission("a", map[string]any{mug.Slug: float64(1000)}),
	})

	assert.True(t, ledger.Validate(catalog.Selection{mug.Slug: 50}, "").OK)
	assert.Empty(t, ledger.DisallowedVariants())
	assert.False(t, ledger.IsSoldOut())
}

func TestQuantityOrderedAccumulatesWeightsAndSkipsUnknown(t *testing.T) {
	s := variant("sizes", "S", 1)
	l := variant("sizes", "L", 2)
	mug := variant("", "Mug", 1)
	cat := catalog.New(models.OrderForm{Variants: []models.ProductVariant{s, l, mug}})
	ledger := NewLedger(cat, enums.StockAccountingLive, []models.OrderSubmission{
		submission("a", map[string]any{s.Slug: float64(2), l.Slug: []any{"1"}, "pv__deleted": float64(9)}),
		submission("b", map[string]any{mug.Slug: "3", l.Slug: nil}),
		submission("c", map[string]any{s.Slug: float64(4)}),
	})

	usage := ledger.QuantityOrdered("c")
	assert.Equal(t, 7, usage.Total)
	assert.Equal(t, 4, usage.PerGroup["sizes"])
	assert.Equal(t, 3, usage.PerGroup[""])
	assert.Equal(t, 2, usage.PerVariant[s.Slug])
	assert.Equal(t, 2, usage.PerVariant[l.Slug])
	assert.Zero(t, usage.PerVariant["pv__deleted"])
}

func TestFrozenAccountingUsesSnapshotWeights(t *testing.T) {
	pack := variant("", "Pack", 5)
	cat := catalog.New(models.OrderForm{Variants: []models.ProductVariant{pack}})
	history := []models.OrderSubmission{{
		Reference:   "a",
		Selection:   map[string]any{pack.Slug: float64(1), "pv__gone": float64(2)},
		UnitWeights: map[string]int{pack.Slug: 3, "pv__gone": 4},
	}}

	live := NewLedger(cat, enums.StockAccountingLive, history).QuantityOrdered("")
	assert.Equal(t, 5, live.Total)

	frozen := NewLedger(cat, enums.StockAccountingFrozen, history).QuantityOrdered("")
	assert.Equal(t, 11, frozen.Total)
	assert.Equal(t, 3, frozen.PerVariant[pack.Slug])
	assert.Equal(t, 8, frozen.PerVariant["pv__gone"])
	assert.Equal(t, 3, frozen.PerGroup[""])
}

func TestScenarioOverallCapExhausted(t *testing.T) {
	mug := variant("", "Mug", 1)
	form := models.OrderForm{TotalAvailable: intPtr(5), Variants: []models.ProductVariant{mug}}
	ledger := NewLedger(catalog.New(form), enums.StockAccountingLive, []models.OrderSubmission{
		submission("a", map[string]any{mug.Slug: float64(2)}),
		submission("b", map[string]any{mug.Slug: float64(3)}),
	})

	res := ledger.Validate(catalog.Selection{mug.Slug: 1}, "")
	require.False(t, res.OK)
	assert.Equal(t, enums.StockScopeOverall, res.Scope)
	assert.Equal(t, "Quantity selected is unavailable; select a maximum of 0 total items.", res.Message)
	assert.True(t, ledger.IsSoldOut())
	assert.Len(t, ledger.DisallowedVariants(), 1)

	assert.True(t, ledger.Validate(catalog.Selection{mug.Slug: 0}, "").OK)
	assert.True(t, ledger.Validate(catalog.Selection{mug.Slug: 3}, "b").OK)
}

func TestScenarioGroupCapSharedByVariants(t *testing.T) {
	s := variant("sizes", "S", 1)
	s.GroupTotalAvailable = intPtr(10)
	l := variant("sizes", "L", 2)
	l.GroupTotalAvailable = intPtr(10)
	cat := catalog.New(models.OrderForm{Variants: []models.ProductVariant{s, l}})
	ledger := NewLedger(cat, enums.StockAccountingLive, []models.OrderSubmission{
		submission("a", map[string]any{s.Slug: float64(4)}),
		submission("b", map[string]any{l.Slug: float64(2)}),
	})

	res := ledger.Validate(catalog.Selection{l.Slug: 2}, "")
	require.False(t, res.OK)
	assert.Equal(t, enums.StockScopeGroup, res.Scope)
	assert.Equal(t, "Quantity selected for sizes is unavailable; select a maximum of 2 total items.", res.Message)

	assert.True(t, ledger.Validate(catalog.Selection{l.Slug: 1}, "").OK)

	disallowed := ledger.DisallowedVariants()
	assert.Empty(t, disallowed)
	assert.False(t, ledger.IsSoldOut())
}

func TestVariantCapMessageUsesDisplayName(t *testing.T) {
	s := variant("sizes", "S", 1)
	s.VariantTotalAvailable = intPtr(3)
	ledger := NewLedger(catalog.New(models.OrderForm{Variants: []models.ProductVariant{s}}), enums.StockAccountingLive, []models.OrderSubmission{
		submission("a", map[string]any{s.Slug: float64(5)}),
	})

	res := ledger.Validate(catalog.Selection{s.Slug: 1}, "")
	require.False(t, res.OK)
	assert.Equal(t, enums.StockScopeVariant, res.Scope)
	assert.Equal(t, "Quantity selected for sizes - S is unavailable; select a maximum of 0 total items.", res.Message)
}

func TestGroupCapCheckedBeforeVariantCap(t *testing.T) {
	s := variant("sizes", "S", 1)
	s.GroupTotalAvailable = intPtr(2)
	s.VariantTotalAvailable = intPtr(1)
	ledger := NewLedger(catalog.New(models.OrderForm{Variants: []models.ProductVariant{s}}), enums.StockAccountingLive, nil)

	res := ledger.Validate(catalog.Selection{s.Slug: 3}, "")
	require.False(t, res.OK)
	assert.Equal(t, enums.StockScopeGroup, res.Scope)

	res = ledger.Validate(catalog.Selection{s.Slug: 2}, "")
	require.False(t, res.OK)
	assert.Equal(t, enums.StockScopeVariant, res.Scope)
}

func TestDisallowedOnceRemainingBelowItemCount(t *testing.T) {
	const k, limit = 3, 10
	pack := variant("", "Pack", k)
	pack.VariantTotalAvailable = intPtr(limit)
	cat := catalog.New(models.OrderForm{Variants: []models.ProductVariant{pack}})

	var history []models.OrderSubmission
	for n := 0; n <= 4; n++ {
		ledger := NewLedger(cat, enums.StockAccountingLive, history)
		consumed := n * k
		want := consumed >= limit-(k-1)
		assert.Equal(t, want, len(ledger.DisallowedVariants()) == 1, "after %d units", consumed)
		history = append(history, submission(string(rune('a'+n)), map[string]any{pack.Slug: float64(1)}))
	}
}

func TestSoldOutRequiresEveryScopedCapExhausted(t *testing.T) {
	a := variant("", "A", 1)
	a.VariantTotalAvailable = intPtr(1)
	b := variant("", "B", 1)
	b.VariantTotalAvailable = intPtr(1)
	c := variant("", "C", 1)
	cat := catalog.New(models.OrderForm{Variants: []models.ProductVariant{a, b, c}})

	partial := NewLedger(cat, enums.StockAccountingLive, []models.OrderSubmission{
		submission("x", map[string]any{a.Slug: float64(1)}),
	})
	assert.False(t, partial.IsSoldOut())
	disallowed := partial.DisallowedVariants()
	require.Len(t, disallowed, 1)
	assert.Equal(t, a.Slug, disallowed[0].Slug)

	full := NewLedger(cat, enums.StockAccountingLive, []models.OrderSubmission{
		submission("x", map[string]any{a.Slug: float64(1), b.Slug: float64(1)}),
	})
	assert.True(t, full.IsSoldOut())
}

func TestRemainingStockIsNotClamped(t *testing.T) {
	assert.Equal(t, -2, RemainingStock(3, 5))
}
