package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeConfiguration, status: http.StatusUnprocessableEntity, publicMsg: "invalid order form configuration", detailsOK: true},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "too many requests", retryable: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
	if got := wrapped.Error(); got != "CONFLICT: ctx: boom" {
		t.Fatalf("unexpected error string %q", got)
	}
}

func TestAsAndIsCodeFollowWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeNotFound, "submission not found"))
	typed := As(err)
	if typed == nil || typed.Code() != CodeNotFound {
		t.Fatalf("expected typed not found error, got %v", typed)
	}
	if !IsCode(err, CodeNotFound) {
		t.Fatalf("expected IsCode to match wrapped code")
	}
	if IsCode(stdErrors.New("plain"), CodeNotFound) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestDumpExtractsPostgresDetails(t *testing.T) {
	pgxErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_vouchers_form_code", TableName: "vouchers", Message: "duplicate key value"}
	dump := Dump(Wrap(CodeConflict, pgxErr, "save voucher"))
	if dump.PGCode != "23505" || dump.PGConstraint != "idx_vouchers_form_code" || dump.PGTable != "vouchers" {
		t.Fatalf("unexpected pgx dump %+v", dump)
	}
	if dump.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %v", dump.Chain)
	}

	pqErr := &pq.Error{Code: "23505", Constraint: "idx_order_submissions_reference", Message: "duplicate key value"}
	dump = Dump(fmt.Errorf("insert: %w", pqErr))
	if dump.PGCode != "23505" || dump.PGConstraint != "idx_order_submissions_reference" {
		t.Fatalf("unexpected pq dump %+v", dump)
	}

	if empty := Dump(nil); empty.TopMessage != "" || len(empty.Chain) != 0 {
		t.Fatalf("expected empty dump for nil error")
	}
}
