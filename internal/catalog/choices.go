package catalog

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
)

// ParseChoices reads a comma separated list of allowed quantities. A blank
// value falls back to the default 0..20 range.
func ParseChoices(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		raw = models.DefaultQuantityChoices
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("quantity choice %q is not a whole number", part)
		}
		if n < 0 {
			return nil, fmt.Errorf("quantity choice %d is negative", n)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no quantity choices configured")
	}
	return out, nil
}

// CheckChoices rejects any non-zero quantity that the variant's drop-down
// does not offer. Unknown slugs are ignored.
func (c *Catalog) CheckChoices(sel Selection) error {
	for _, v := range c.variants {
		qty := sel.Quantity(v.Slug)
		if qty == 0 {
			continue
		}
		choices, err := ParseChoices(v.QuantityChoices)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "invalid quantity choices").
				WithDetails(map[string]any{"variant": v.Slug})
		}
		if !slices.Contains(choices, qty) {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Select a valid quantity for %s.", v.DisplayName())).
				WithDetails(map[string]any{"field": v.Slug, "choices": choices})
		}
	}
	return nil
}
