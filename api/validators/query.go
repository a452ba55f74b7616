package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
)

// ParseQueryBool reads an optional boolean flag; an absent value yields def.
func ParseQueryBool(r *http.Request, key string, def bool) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be true or false").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// ParseQueryChoice reads an optional, case-insensitive value limited to
// choices. An absent value yields the first choice.
func ParseQueryChoice(r *http.Request, key string, choices ...string) (string, error) {
	raw := strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key)))
	if raw == "" && len(choices) > 0 {
		return choices[0], nil
	}
	for _, c := range choices {
		if raw == c {
			return c, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "query parameter has an unsupported value").
		WithDetails(map[string]any{"field": key, "allowed": choices})
}
