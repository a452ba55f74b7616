package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
)

type sampleBody struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","email":"a@b.co","extra":1}`))
	var dest sampleBody
	err := DecodeJSONBody(req, &dest)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"","email":"nope"}`))
	var dest sampleBody
	err := DecodeJSONBody(req, &dest)
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %T", typed.Details())
	}
	if details["name"] != "is required" || details["email"] != "must be a valid email" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestDecodeJSONBodyRejectsTrailingData(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","email":"a@b.co"}{"name":"b"}`))
	var dest sampleBody
	if err := DecodeJSONBody(req, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type nestedBody struct {
	Items []sampleBody `json:"items" validate:"dive"`
}

func TestDecodeJSONBodyReportsNestedPaths(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"items":[{"name":"a","email":"a@b.co"},{"name":"","email":"a@b.co"}]}`))
	var dest nestedBody
	typed := pkgerrors.As(DecodeJSONBody(req, &dest))
	if typed == nil {
		t.Fatalf("expected typed error")
	}
	details, _ := typed.Details().(map[string]string)
	if details["items[1].name"] != "is required" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestParseQueryBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?paid=true", nil)
	if v, err := ParseQueryBool(req, "paid", false); err != nil || !v {
		t.Fatalf("expected true, got %v err=%v", v, err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if v, err := ParseQueryBool(req, "paid", true); err != nil || !v {
		t.Fatalf("expected default, got %v err=%v", v, err)
	}
	req = httptest.NewRequest(http.MethodGet, "/?paid=maybe", nil)
	if _, err := ParseQueryBool(req, "paid", false); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryChoice(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?format=CSV", nil)
	if v, err := ParseQueryChoice(req, "format", "json", "csv"); err != nil || v != "csv" {
		t.Fatalf("expected csv, got %q err=%v", v, err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if v, _ := ParseQueryChoice(req, "format", "json", "csv"); v != "json" {
		t.Fatalf("expected first choice, got %q", v)
	}
	req = httptest.NewRequest(http.MethodGet, "/?format=xml", nil)
	if _, err := ParseQueryChoice(req, "format", "json", "csv"); err == nil {
		t.Fatalf("expected unsupported value error")
	}
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	req := withParam(httptest.NewRequest(http.MethodGet, "/", nil), "formId", id.String())
	got, err := ParseUUIDParam(req, "formId")
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s err=%v", id, got, err)
	}

	req = withParam(httptest.NewRequest(http.MethodGet, "/", nil), "formId", "nope")
	if _, err := ParseUUIDParam(req, "formId"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSanitizeReference(t *testing.T) {
	if got, err := SanitizeReference("  8XkPq2rT  "); err != nil || got != "8XkPq2rT" {
		t.Fatalf("unexpected reference %q err=%v", got, err)
	}
	for _, bad := range []string{"", "   ", "abc;drop", strings.Repeat("a", 65), "ref/../x"} {
		if _, err := SanitizeReference(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func withParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
