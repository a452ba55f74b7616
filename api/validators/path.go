package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
)

// ParseUUIDParam reads a chi URL parameter and parses it as a UUID.
func ParseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "path parameter is required").WithDetails(map[string]any{"field": key})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a uuid").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

// RequireParam returns a trimmed, non-empty chi URL parameter.
func RequireParam(r *http.Request, key string) (string, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "path parameter is required").WithDetails(map[string]any{"field": key})
	}
	return raw, nil
}
