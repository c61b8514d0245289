package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"

	"go.uber.org/multierr"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "invalid pricing input", detailsOK: true},
		{code: CodeConfiguration, status: http.StatusInternalServerError, publicMsg: "pricing configuration invalid", detailsOK: true},
		{code: CodeInvariant, status: http.StatusInternalServerError, publicMsg: "pricing invariant violated"},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
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
	base := New(CodeValidation, "missing price")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing price" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "load overrides")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Error() != "DEPENDENCY_ERROR: load overrides: boom" {
		t.Fatalf("unexpected error string %q", wrapped.Error())
	}
}

func TestInvalidCarriesFieldDetails(t *testing.T) {
	err := Invalid("vendor_base_price", "must be positive")
	if !IsCode(err, CodeValidation) {
		t.Fatalf("expected validation code, got %s", err.Code())
	}
	details, ok := err.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", err.Details())
	}
	if details["field"] != "vendor_base_price" {
		t.Fatalf("unexpected field detail %v", details["field"])
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeInvariant, "buckets do not reconstruct")
	if got := As(err); got == nil || got.Code() != CodeInvariant {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestDumpFlattensCombinedCauses(t *testing.T) {
	combined := multierr.Combine(stdErrors.New("vat_rate out of range"), stdErrors.New("divisor must be positive"))
	dump := Dump(Wrap(CodeConfiguration, combined, "invalid settings"))
	if dump.Code != CodeConfiguration {
		t.Fatalf("expected configuration code, got %s", dump.Code)
	}
	if len(dump.Causes) != 2 {
		t.Fatalf("expected 2 causes, got %d (%v)", len(dump.Causes), dump.Causes)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected wrapped chain, got %v", dump.Chain)
	}
}
