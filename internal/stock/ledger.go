// Package stock decides whether a selection fits within a form's stock caps.
// It works on an explicit snapshot of past submissions and performs no I/O.
package stock

import (
	"fmt"

	"github.com/pins-charity/orderforms-backend/internal/catalog"
	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	"github.com/pins-charity/orderforms-backend/pkg/enums"
)

// Usage is the number of stock units consumed, bucketed by scope.
// Ungrouped variants share the "" group bucket.
type Usage struct {
	Total      int            `json:"total"`
	PerGroup   map[string]int `json:"per_group"`
	PerVariant map[string]int `json:"per_variant"`
}

func newUsage() Usage {
	return Usage{PerGroup: map[string]int{}, PerVariant: map[string]int{}}
}

func (u *Usage) add(group string, grouped bool, slug string, units int) {
	u.Total += units
	u.PerVariant[slug] += units
	if grouped {
		u.PerGroup[group] += units
	}
}

// Result is the outcome of validating a selection.
type Result struct {
	OK      bool             `json:"ok"`
	Message string           `json:"message,omitempty"`
	Scope   enums.StockScope `json:"scope,omitempty"`
	Name    string           `json:"name,omitempty"`
}

// Ledger aggregates historical submissions against a catalog.
type Ledger struct {
	catalog    *catalog.Catalog
	accounting enums.StockAccounting
	history    []models.OrderSubmission
}

// NewLedger captures the snapshot the ledger works over.
func NewLedger(cat *catalog.Catalog, accounting enums.StockAccounting, history []models.OrderSubmission) *Ledger {
	if !accounting.IsValid() {
		accounting = enums.StockAccountingLive
	}
	return &Ledger{catalog: cat, accounting: accounting, history: history}
}

// RemainingStock is cap minus used. It is not clamped.
func RemainingStock(limit, used int) int {
	return limit - used
}

// QuantityOrdered sums the units consumed by every submission in the snapshot
// except the one whose reference matches excludeReference.
func (l *Ledger) QuantityOrdered(excludeReference string) Usage {
	usage := newUsage()
	for _, sub := range l.history {
		if excludeReference != "" && sub.Reference == excludeReference {
			continue
		}
		sel := catalog.DecodeStoredSelection(sub.Selection)
		for slug, qty := range sel {
			if qty == 0 {
				continue
			}
			l.accumulate(&usage, slug, qty, sub.UnitWeights)
		}
	}
	return usage
}

// SelectionUsage is the units a proposed selection would consume. Unknown
// slugs are ignored.
func (l *Ledger) SelectionUsage(sel catalog.Selection) Usage {
	usage := newUsage()
	for _, v := range l.catalog.Variants() {
		qty := sel.Quantity(v.Slug)
		if qty == 0 {
			continue
		}
		usage.add(v.GroupName, true, v.Slug, qty*v.ItemCount)
	}
	return usage
}

func (l *Ledger) accumulate(usage *Usage, slug string, qty int, weights map[string]int) {
	v, known := l.catalog.Variant(slug)
	if l.accounting == enums.StockAccountingFrozen {
		weight, snap := weights[slug]
		switch {
		case snap && known:
			usage.add(v.GroupName, true, slug, qty*weight)
		case snap:
			usage.add("", false, slug, qty*weight)
		case known:
			usage.add(v.GroupName, true, slug, qty*v.ItemCount)
		}
		return
	}
	if !known {
		return
	}
	usage.add(v.GroupName, true, slug, qty*v.ItemCount)
}

// Validate checks sel against every configured cap. The overall cap is
// checked alone; otherwise group caps are checked before variant caps and the
// first exceeded cap wins. A scope is only checked when the selection draws
// on it.
func (l *Ledger) Validate(sel catalog.Selection, excludeReference string) Result {
	if !l.catalog.HasCaps() {
		return Result{OK: true}
	}
	used := l.QuantityOrdered(excludeReference)
	proposed := l.SelectionUsage(sel)

	if limit, ok := l.catalog.OverallCap(); ok {
		if proposed.Total > 0 && used.Total+proposed.Total > limit {
			remaining := clamp(RemainingStock(limit, used.Total))
			return Result{
				Scope:   enums.StockScopeOverall,
				Message: fmt.Sprintf("Quantity selected is unavailable; select a maximum of %d total items.", remaining),
			}
		}
		return Result{OK: true}
	}

	for _, group := range l.catalog.Groups() {
		limit, ok := l.catalog.GroupCap(group)
		if !ok || proposed.PerGroup[group] == 0 {
			continue
		}
		if used.PerGroup[group]+proposed.PerGroup[group] > limit {
			return exceeded(enums.StockScopeGroup, group, RemainingStock(limit, used.PerGroup[group]))
		}
	}
	for _, v := range l.catalog.Variants() {
		if v.VariantTotalAvailable == nil || proposed.PerVariant[v.Slug] == 0 {
			continue
		}
		limit := *v.VariantTotalAvailable
		if used.PerVariant[v.Slug]+proposed.PerVariant[v.Slug] > limit {
			return exceeded(enums.StockScopeVariant, v.DisplayName(), RemainingStock(limit, used.PerVariant[v.Slug]))
		}
	}
	return Result{OK: true}
}

func exceeded(scope enums.StockScope, name string, remaining int) Result {
	return Result{
		Scope:   scope,
		Name:    name,
		Message: fmt.Sprintf("Quantity selected for %s is unavailable; select a maximum of %d total items.", name, clamp(remaining)),
	}
}

// DisallowedVariants lists variants whose single unit no longer fits in the
// remaining stock of the scope that governs them.
func (l *Ledger) DisallowedVariants() []models.ProductVariant {
	if !l.catalog.HasCaps() {
		return nil
	}
	used := l.QuantityOrdered("")
	var out []models.ProductVariant

	if limit, ok := l.catalog.OverallCap(); ok {
		remaining := RemainingStock(limit, used.Total)
		for _, v := range l.catalog.Variants() {
			if v.ItemCount > remaining {
				out = append(out, v)
			}
		}
		return out
	}

	for _, v := range l.catalog.Variants() {
		remaining, capped := l.variantRemaining(v, used)
		if capped && v.ItemCount > remaining {
			out = append(out, v)
		}
	}
	return out
}

// variantRemaining returns the tighter of the group and variant remaining
// stock for v, and whether either cap applies.
func (l *Ledger) variantRemaining(v models.ProductVariant, used Usage) (int, bool) {
	remaining, capped := 0, false
	if limit, ok := l.catalog.GroupCap(v.GroupName); ok {
		remaining, capped = RemainingStock(limit, used.PerGroup[v.GroupName]), true
	}
	if v.VariantTotalAvailable != nil {
		r := RemainingStock(*v.VariantTotalAvailable, used.PerVariant[v.Slug])
		if !capped || r < remaining {
			remaining = r
		}
		capped = true
	}
	return remaining, capped
}

// IsSoldOut reports whether the overall cap is used up or, without one, every
// configured group and variant cap is used up.
func (l *Ledger) IsSoldOut() bool {
	if !l.catalog.HasCaps() {
		return false
	}
	used := l.QuantityOrdered("")
	if limit, ok := l.catalog.OverallCap(); ok {
		return used.Total >= limit
	}
	for _, group := range l.catalog.Groups() {
		if limit, ok := l.catalog.GroupCap(group); ok && used.PerGroup[group] < limit {
			return false
		}
	}
	for _, v := range l.catalog.Variants() {
		if v.VariantTotalAvailable != nil && used.PerVariant[v.Slug] < *v.VariantTotalAvailable {
			return false
		}
	}
	return true
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
