package catalog

import (
	"sort"

	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	"github.com/pins-charity/orderforms-backend/pkg/enums"
)

// Catalog is a read-only view over the variants and caps of one order form.
type Catalog struct {
	variants   []models.ProductVariant
	bySlug     map[string]int
	overallCap *int
	groupCaps  map[string]int
	groups     []string
}

// New builds a catalog from a loaded form. Variants are kept in position order.
func New(form models.OrderForm) *Catalog {
	variants := make([]models.ProductVariant, len(form.Variants))
	copy(variants, form.Variants)
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Position < variants[j].Position
	})

	c := &Catalog{
		variants:   variants,
		bySlug:     make(map[string]int, len(variants)),
		overallCap: form.TotalAvailable,
		groupCaps:  map[string]int{},
	}
	seenGroup := map[string]bool{}
	for i, v := range variants {
		c.bySlug[v.Slug] = i
		if !seenGroup[v.GroupName] {
			seenGroup[v.GroupName] = true
			c.groups = append(c.groups, v.GroupName)
		}
		if v.GroupTotalAvailable != nil {
			if _, ok := c.groupCaps[v.GroupName]; !ok {
				c.groupCaps[v.GroupName] = *v.GroupTotalAvailable
			}
		}
	}
	return c
}

// Variants returns the variants in display order.
func (c *Catalog) Variants() []models.ProductVariant {
	return c.variants
}

// Variant looks a variant up by slug.
func (c *Catalog) Variant(slug string) (models.ProductVariant, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return models.ProductVariant{}, false
	}
	return c.variants[i], true
}

// Groups returns the distinct group labels in order of first appearance.
func (c *Catalog) Groups() []string {
	return c.groups
}

// OverallCap returns the form-wide cap, if configured.
func (c *Catalog) OverallCap() (int, bool) {
	if c.overallCap == nil {
		return 0, false
	}
	return *c.overallCap, true
}

// GroupCap returns the cap shared by a group, if configured.
func (c *Catalog) GroupCap(group string) (int, bool) {
	limit, ok := c.groupCaps[group]
	return limit, ok
}

// Scope reports the broadest stock scope configured on the form.
func (c *Catalog) Scope() enums.StockScope {
	if c.overallCap != nil {
		return enums.StockScopeOverall
	}
	if len(c.groupCaps) > 0 {
		return enums.StockScopeGroup
	}
	for _, v := range c.variants {
		if v.VariantTotalAvailable != nil {
			return enums.StockScopeVariant
		}
	}
	return enums.StockScopeNone
}

// HasCaps reports whether any stock cap is configured.
func (c *Catalog) HasCaps() bool {
	return c.Scope() != enums.StockScopeNone
}

// ItemCounts maps each current slug to its stock weight.
func (c *Catalog) ItemCounts() map[string]int {
	out := make(map[string]int, len(c.variants))
	for _, v := range c.variants {
		out[v.Slug] = v.ItemCount
	}
	return out
}
