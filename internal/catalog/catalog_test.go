package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	"github.com/pins-charity/orderforms-backend/pkg/enums"
	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
)

func intPtr(v int) *int { return &v }

func variant(group, name, slug string, itemCount int) models.ProductVariant {
	return models.ProductVariant{
		GroupName:       group,
		Name:            name,
		Slug:            slug,
		UnitCost:        decimal.NewFromInt(10),
		ItemCount:       itemCount,
		QuantityChoices: models.DefaultQuantityChoices,
	}
}

func TestCatalogOrdersVariantsAndReportsScope(t *testing.T) {
	first := variant("sizes", "S", "pv__sizes_s", 1)
	first.Position = 2
	second := variant("sizes", "L", "pv__sizes_l", 2)
	second.Position = 1
	second.GroupTotalAvailable = intPtr(10)

	cat := New(models.OrderForm{Variants: []models.ProductVariant{first, second}})

	require.Len(t, cat.Variants(), 2)
	assert.Equal(t, "pv__sizes_l", cat.Variants()[0].Slug)
	assert.Equal(t, enums.StockScopeGroup, cat.Scope())
	limit, ok := cat.GroupCap("sizes")
	require.True(t, ok)
	assert.Equal(t, 10, limit)
	assert.Equal(t, map[string]int{"pv__sizes_s": 1, "pv__sizes_l": 2}, cat.ItemCounts())

	_, ok = cat.Variant("pv__missing")
	assert.False(t, ok)
}

func TestCatalogScopes(t *testing.T) {
	assert.Equal(t, enums.StockScopeNone, New(models.OrderForm{Variants: []models.ProductVariant{variant("", "Mug", "pv__mug", 1)}}).Scope())

	v := variant("", "Mug", "pv__mug", 1)
	v.VariantTotalAvailable = intPtr(3)
	assert.Equal(t, enums.StockScopeVariant, New(models.OrderForm{Variants: []models.ProductVariant{v}}).Scope())

	overall := New(models.OrderForm{TotalAvailable: intPtr(5)})
	assert.Equal(t, enums.StockScopeOverall, overall.Scope())
	assert.True(t, overall.HasCaps())
}

func TestDecodeSelection(t *testing.T) {
	sel, err := DecodeSelection(map[string]any{
		"pv__a": float64(2),
		"pv__b": "3",
		"pv__c": []any{"4"},
		"pv__d": nil,
		"pv__e": []any{},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, sel.Quantity("pv__a"))
	assert.Equal(t, 3, sel.Quantity("pv__b"))
	assert.Equal(t, 4, sel.Quantity("pv__c"))
	assert.Equal(t, 0, sel.Quantity("pv__d"))
	assert.Equal(t, 0, sel.Quantity("pv__e"))
	assert.Equal(t, 0, sel.Quantity("pv__missing"))
}

func TestDecodeSelectionRejectsBadQuantities(t *testing.T) {
	for name, value := range map[string]any{
		"negative":   float64(-1),
		"fraction":   1.5,
		"text":       "two",
		"multi list": []any{1, 2},
		"bool":       true,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSelection(map[string]any{"pv__a": value})
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestDecodeStoredSelectionSkipsBadEntries(t *testing.T) {
	sel := DecodeStoredSelection(map[string]any{"pv__a": float64(1), "pv__b": "oops"})
	assert.Equal(t, Selection{"pv__a": 1}, sel)
}

func TestCleanNameAndBaseSlug(t *testing.T) {
	assert.Equal(t, "tea_towel_large", CleanName("  Tea-Towel (Large)! "))
	assert.Equal(t, "pv__sizes_l", BaseSlug("Sizes", "L"))
	assert.Equal(t, "pv__mug", BaseSlug("", "Mug"))
}

func TestAssignSlugsKeepsExistingAndAddsSuffix(t *testing.T) {
	variants := []models.ProductVariant{
		{Name: "Mug", Slug: "pv__mug"},
		{Name: "Mug"},
		{Name: "mug!"},
		{GroupName: "Renamed", Name: "Thing", Slug: "pv__old_thing"},
	}
	AssignSlugs(variants)

	assert.Equal(t, "pv__mug", variants[0].Slug)
	assert.Equal(t, "pv__mug_1", variants[1].Slug)
	assert.Equal(t, "pv__mug_2", variants[2].Slug)
	assert.Equal(t, "pv__old_thing", variants[3].Slug)
}

func TestParseChoices(t *testing.T) {
	choices, err := ParseChoices(" 0, 1,5 ,10")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 5, 10}, choices)

	choices, err = ParseChoices("")
	require.NoError(t, err)
	assert.Len(t, choices, 21)

	_, err = ParseChoices("1,x")
	assert.Error(t, err)
	_, err = ParseChoices("-1")
	assert.Error(t, err)
}

func TestCheckChoices(t *testing.T) {
	v := variant("", "Mug", "pv__mug", 1)
	v.QuantityChoices = "0,1,2,5"
	cat := New(models.OrderForm{Variants: []models.ProductVariant{v}})

	require.NoError(t, cat.CheckChoices(Selection{"pv__mug": 5, "pv__gone": 3}))
	err := cat.CheckChoices(Selection{"pv__mug": 3})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "Select a valid quantity for Mug.")
}

func TestValidateConfiguration(t *testing.T) {
	valid := models.OrderForm{Variants: []models.ProductVariant{variant("sizes", "S", "pv__sizes_s", 1), variant("sizes", "L", "pv__sizes_l", 2)}}
	require.NoError(t, ValidateConfiguration(valid))

	cases := map[string]func(f *models.OrderForm){
		"overall mixed with group": func(f *models.OrderForm) {
			f.TotalAvailable = intPtr(5)
			f.Variants[0].GroupTotalAvailable = intPtr(3)
		},
		"overall mixed with variant": func(f *models.OrderForm) {
			f.TotalAvailable = intPtr(5)
			f.Variants[1].VariantTotalAvailable = intPtr(3)
		},
		"conflicting group caps": func(f *models.OrderForm) {
			f.Variants[0].GroupTotalAvailable = intPtr(3)
			f.Variants[1].GroupTotalAvailable = intPtr(4)
		},
		"zero item count": func(f *models.OrderForm) {
			f.Variants[0].ItemCount = 0
		},
		"negative cost": func(f *models.OrderForm) {
			f.Variants[0].UnitCost = decimal.NewFromInt(-1)
		},
		"duplicate slug": func(f *models.OrderForm) {
			f.Variants[1].Slug = f.Variants[0].Slug
		},
		"default outside choices": func(f *models.OrderForm) {
			f.Variants[0].QuantityChoices = "0,2"
			f.Variants[0].DefaultQuantity = 1
		},
		"group cap without group": func(f *models.OrderForm) {
			f.Variants[0].GroupName = ""
			f.Variants[0].GroupTotalAvailable = intPtr(1)
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			form := models.OrderForm{Variants: []models.ProductVariant{variant("sizes", "S", "pv__sizes_s", 1), variant("sizes", "L", "pv__sizes_l", 2)}}
			mutate(&form)
			err := ValidateConfiguration(form)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration), "got %v", err)
		})
	}
}
