package catalog

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pins-charity/orderforms-backend/pkg/db/models"
)

const slugPrefix = "pv__"

// CleanName lowercases s and collapses every run of non alphanumeric
// characters into a single underscore.
func CleanName(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// BaseSlug is the slug a variant gets before collision suffixes.
func BaseSlug(group, name string) string {
	return slugPrefix + CleanName(strings.TrimSpace(group+" "+name))
}

// AssignSlugs fills in missing slugs. Slugs that are already set never change;
// new ones get a numeric suffix when the base is taken.
func AssignSlugs(variants []models.ProductVariant) {
	taken := make(map[string]bool, len(variants))
	for _, v := range variants {
		if v.Slug != "" {
			taken[v.Slug] = true
		}
	}
	for i := range variants {
		if variants[i].Slug != "" {
			continue
		}
		base := BaseSlug(variants[i].GroupName, variants[i].Name)
		slug := base
		for counter := 1; taken[slug]; counter++ {
			slug = base + "_" + strconv.Itoa(counter)
		}
		taken[slug] = true
		variants[i].Slug = slug
	}
}
