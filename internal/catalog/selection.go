package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
)

// Selection maps a variant slug to the requested quantity. Missing slugs
// read as zero.
type Selection map[string]int

// Quantity returns the requested quantity for slug.
func (s Selection) Quantity(slug string) int {
	return s[slug]
}

// Raw converts the selection back into the stored payload shape.
func (s Selection) Raw() map[string]any {
	out := make(map[string]any, len(s))
	for slug, qty := range s {
		out[slug] = qty
	}
	return out
}

// DecodeSelection turns a loosely shaped payload into a Selection. Values may
// be numbers, numeric strings or single-element lists of either. Negative or
// non-integer quantities are rejected.
func DecodeSelection(raw map[string]any) (Selection, error) {
	sel := make(Selection, len(raw))
	for slug, value := range raw {
		qty, err := decodeQuantity(value)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quantity").
				WithDetails(map[string]any{"field": slug})
		}
		sel[slug] = qty
	}
	return sel, nil
}

// DecodeStoredSelection decodes a persisted selection, skipping entries that
// no longer decode instead of failing the whole submission.
func DecodeStoredSelection(raw map[string]any) Selection {
	sel := make(Selection, len(raw))
	for slug, value := range raw {
		qty, err := decodeQuantity(value)
		if err != nil {
			continue
		}
		sel[slug] = qty
	}
	return sel
}

func decodeQuantity(value any) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case []any:
		switch len(v) {
		case 0:
			return 0, nil
		case 1:
			return decodeQuantity(v[0])
		}
		return 0, fmt.Errorf("expected a single value, got %d", len(v))
	case []string:
		switch len(v) {
		case 0:
			return 0, nil
		case 1:
			return decodeQuantity(v[0])
		}
		return 0, fmt.Errorf("expected a single value, got %d", len(v))
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, fmt.Errorf("quantity %q is not a whole number", v)
		}
		return checkQuantity(n)
	case int:
		return checkQuantity(v)
	case int64:
		return checkQuantity(int(v))
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("quantity %v is not a whole number", v)
		}
		return checkQuantity(int(v))
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("quantity %q is not a whole number", v.String())
		}
		return checkQuantity(int(n))
	}
	return 0, fmt.Errorf("unsupported quantity type %T", value)
}

func checkQuantity(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("quantity %d is negative", n)
	}
	return n, nil
}
