package shipping

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
)

// Tier charges Cost for orders of up to Ceiling units. A nil Ceiling is the
// open-ended tier covering everything above the previous ceiling.
type Tier struct {
	Ceiling *int
	Cost    decimal.Decimal
}

// Open reports whether the tier has no upper bound.
func (t Tier) Open() bool { return t.Ceiling == nil }

// Tariff is an ascending list of tiers with at most one open tier, always last.
type Tariff struct {
	tiers []Tier
}

// Label is a human readable tier description.
type Label struct {
	Label string          `json:"label"`
	Cost  decimal.Decimal `json:"cost"`
}

// NewTariff validates the tiers in the order given.
func NewTariff(tiers []Tier) (Tariff, error) {
	prev := 0
	for i, tier := range tiers {
		details := map[string]any{"tier": i + 1}
		if tier.Cost.IsNegative() {
			return Tariff{}, pkgerrors.New(pkgerrors.CodeConfiguration, "shipping cost cannot be negative").WithDetails(details)
		}
		if tier.Open() {
			if i != len(tiers)-1 {
				return Tariff{}, pkgerrors.New(pkgerrors.CodeConfiguration, "only the last shipping tier may be open ended").WithDetails(details)
			}
			continue
		}
		if *tier.Ceiling < 1 {
			return Tariff{}, pkgerrors.New(pkgerrors.CodeConfiguration, "shipping tier ceilings must be at least 1").WithDetails(details)
		}
		if *tier.Ceiling <= prev {
			return Tariff{}, pkgerrors.New(pkgerrors.CodeConfiguration, "shipping tier ceilings must be strictly increasing").WithDetails(details)
		}
		prev = *tier.Ceiling
	}
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return Tariff{tiers: out}, nil
}

// FromModels builds a tariff from stored tiers, ordered by position.
func FromModels(rows []models.ShippingTier) (Tariff, error) {
	sorted := make([]models.ShippingTier, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	tiers := make([]Tier, 0, len(sorted))
	for _, row := range sorted {
		tiers = append(tiers, Tier{Ceiling: row.MaxQuantity, Cost: row.Cost})
	}
	return NewTariff(tiers)
}

// Tiers returns a copy of the configured tiers.
func (t Tariff) Tiers() []Tier {
	out := make([]Tier, len(t.tiers))
	copy(out, t.tiers)
	return out
}

// Cost returns the shipping charge for quantity units. Quantities above every
// finite ceiling use the open tier, or the last tier when there is none.
func (t Tariff) Cost(quantity int) decimal.Decimal {
	if len(t.tiers) == 0 {
		return decimal.Zero
	}
	for _, tier := range t.tiers {
		if tier.Open() || *tier.Ceiling >= quantity {
			return tier.Cost
		}
	}
	return t.tiers[len(t.tiers)-1].Cost
}

// Labels describes each tier's quantity band.
func (t Tariff) Labels() []Label {
	if len(t.tiers) == 1 && t.tiers[0].Open() {
		return []Label{{Label: "Flat rate per order", Cost: t.tiers[0].Cost}}
	}
	out := make([]Label, 0, len(t.tiers))
	start := 1
	for _, tier := range t.tiers {
		var text string
		switch {
		case tier.Open():
			text = fmt.Sprintf("%d+ items", start)
		case *tier.Ceiling == start && start == 1:
			text = "1 item"
		case *tier.Ceiling == start:
			text = fmt.Sprintf("%d items", start)
		default:
			text = fmt.Sprintf("%d-%d items", start, *tier.Ceiling)
		}
		out = append(out, Label{Label: text, Cost: tier.Cost})
		if !tier.Open() {
			start = *tier.Ceiling + 1
		}
	}
	return out
}
