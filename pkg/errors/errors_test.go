package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "Listing not found"},
			expected: "NOT_FOUND: Listing not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodePersistenceFailure,
				Message: "Failed to save listing",
				Err:     errors.New("connection reset"),
			},
			expected: "PERSISTENCE_FAILURE: Failed to save listing (caused by: connection reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Listing"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad listing", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("missing token"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("admin disabled"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("listing is busy"), CodeConflict, http.StatusConflict},
		{"invalid range", InvalidRange("start must be before end"), CodeInvalidRange, http.StatusBadRequest},
		{"date conflict", DateConflict("dates taken", nil), CodeDateConflict, http.StatusConflict},
		{"persistence failure", PersistenceFailure("save listing", cause), CodePersistenceFailure, http.StatusServiceUnavailable},
		{"internal", Internal("unexpected", cause), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Redis"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("status = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
		})
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Listing", "65f0c0ffee")

	if err.Message != "Listing not found" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Details["id"] != "65f0c0ffee" {
		t.Errorf("expected id detail, got %v", err.Details["id"])
	}
	if err.Details["resource"] != "Listing" {
		t.Errorf("expected resource detail, got %v", err.Details["resource"])
	}
}

func TestPersistenceFailure_Unwrap(t *testing.T) {
	cause := errors.New("no reachable servers")
	err := PersistenceFailure("query listings", cause)

	if !errors.Is(err, cause) {
		t.Errorf("expected errors.Is to find the cause")
	}
	if err.Message != "Failed to query listings" {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestStatusCode_DefaultsToInternal(t *testing.T) {
	err := &AppError{Code: "SOMETHING"}
	if err.StatusCode() != http.StatusInternalServerError {
		t.Errorf("StatusCode() = %d, want 500", err.StatusCode())
	}
}

func TestIsAppError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("reserve: %w", DateConflict("dates taken", nil))

	if !IsAppError(wrapped) {
		t.Errorf("IsAppError() should see through wrapping")
	}
	if !HasCode(wrapped, CodeDateConflict) {
		t.Errorf("HasCode() should match DATE_CONFLICT")
	}
	if HasCode(wrapped, CodeNotFound) {
		t.Errorf("HasCode() should not match NOT_FOUND")
	}
	if IsAppError(errors.New("plain")) {
		t.Errorf("IsAppError() should be false for plain errors")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Listing")
	if AsAppError(appErr) != appErr {
		t.Errorf("AsAppError() should return the same AppError")
	}

	plain := errors.New("plain")
	result := AsAppError(plain)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap plain errors as internal, got %s", result.Code)
	}
	if result.Err != plain {
		t.Errorf("AsAppError() should keep the original error")
	}
}
