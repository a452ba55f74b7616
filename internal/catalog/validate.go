package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
)

func configErr(msg string, details map[string]any) error {
	err := pkgerrors.New(pkgerrors.CodeConfiguration, msg)
	if details != nil {
		err = err.WithDetails(details)
	}
	return err
}

// ValidateConfiguration checks variant definitions and stock caps before a
// form is saved. Slugs must already be assigned.
func ValidateConfiguration(form models.OrderForm) error {
	if form.TotalAvailable != nil && *form.TotalAvailable < 0 {
		return configErr("total available cannot be negative", nil)
	}

	hasScopedCap := false
	groupCaps := map[string]int{}
	slugs := map[string]bool{}
	for _, v := range form.Variants {
		details := map[string]any{"variant": v.DisplayName()}
		if strings.TrimSpace(v.Name) == "" {
			return configErr("variant name is required", nil)
		}
		if v.UnitCost.IsNegative() {
			return configErr("unit cost cannot be negative", details)
		}
		if v.ItemCount < 1 {
			return configErr("item count must be at least 1", details)
		}
		choices, err := ParseChoices(v.QuantityChoices)
		if err != nil {
			return configErr(err.Error(), details)
		}
		if v.DefaultQuantity != 0 && !slices.Contains(choices, v.DefaultQuantity) {
			return configErr("default quantity must be one of the quantity choices", details)
		}
		if v.Slug == "" || slugs[v.Slug] {
			return configErr("variant slugs must be unique", details)
		}
		slugs[v.Slug] = true

		if v.VariantTotalAvailable != nil {
			hasScopedCap = true
			if *v.VariantTotalAvailable < 0 {
				return configErr("variant total available cannot be negative", details)
			}
		}
		if v.GroupTotalAvailable != nil {
			hasScopedCap = true
			if v.GroupName == "" {
				return configErr("a group cap requires a group name", details)
			}
			if *v.GroupTotalAvailable < 0 {
				return configErr("group total available cannot be negative", details)
			}
			if prev, ok := groupCaps[v.GroupName]; ok && prev != *v.GroupTotalAvailable {
				return configErr(fmt.Sprintf("variants in group %s declare different group caps", v.GroupName), details)
			}
			groupCaps[v.GroupName] = *v.GroupTotalAvailable
		}
	}

	if form.TotalAvailable != nil && hasScopedCap {
		return configErr("an overall cap cannot be combined with group or variant caps", nil)
	}
	return nil
}
