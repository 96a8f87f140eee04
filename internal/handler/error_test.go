package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DukeRupert/shopnav/internal/domain"
)

// =============================================================================
// Error Response Tests - Security Focus
// =============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serveError(err error, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/nav/view-model", nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	ErrorResponse(rec, req, discardLogger(), err)
	return rec
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"unknown", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := ErrorCodeToHTTPStatus(tt.code); got != tt.want {
			t.Errorf("ErrorCodeToHTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestErrorResponse_InternalErrorHidesDetails(t *testing.T) {
	dbErr := &mockDatabaseError{message: "pgx: relation \"products\" does not exist"}
	internalErr := domain.Internal(dbErr, "repository.products", "Database query failed")

	for _, accept := range []string{"text/html", "application/json"} {
		rec := serveError(internalErr, accept)
		body := rec.Body.String()

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%s: expected 500, got %d", accept, rec.Code)
		}
		for _, leak := range []string{"pgx:", "relation", "repository.products"} {
			if strings.Contains(body, leak) {
				t.Errorf("%s: response exposes %q: %s", accept, leak, body)
			}
		}
		if !strings.Contains(body, "internal error") {
			t.Errorf("%s: response should contain generic message, got: %s", accept, body)
		}
	}
}

func TestErrorResponse_UnwrappedErrorReturnsGeneric(t *testing.T) {
	rawErr := &mockDatabaseError{message: "FATAL: password authentication failed for user \"postgres\""}
	body := serveError(rawErr, "text/html").Body.String()

	if strings.Contains(body, "FATAL") || strings.Contains(body, "postgres") {
		t.Errorf("response exposes raw error: %s", body)
	}
	if !strings.Contains(body, "internal error") {
		t.Errorf("response should contain generic message, got: %s", body)
	}
}

func TestErrorResponse_InvalidJSON(t *testing.T) {
	rec := serveError(domain.Invalid("viewport.report", "width must be a non-negative integer"), "application/json")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	var body JSONError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Error.Code != domain.EINVALID {
		t.Errorf("expected code %q, got %q", domain.EINVALID, body.Error.Code)
	}
	if body.Error.Message != "width must be a non-negative integer" {
		t.Errorf("unexpected message: %q", body.Error.Message)
	}
}

func TestErrorResponse_HTMXGetsText(t *testing.T) {
	req := httptest.NewRequest("GET", "/nav", nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	ErrorResponse(rec, req, discardLogger(), domain.Invalid("nav.partial", "bad path"))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected text response for htmx, got %q", ct)
	}
}

func TestValidationErrorResponse_DoesNotExposeOperationName(t *testing.T) {
	ve := domain.AddFieldError(nil, "NavigationHandler.Viewport", "width", "Width must be a number")

	req := httptest.NewRequest("POST", "/nav/viewport", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	ValidationErrorResponse(rec, req, discardLogger(), ve)

	body := rec.Body.String()
	if strings.Contains(body, "NavigationHandler") {
		t.Errorf("JSON response exposes internal operation name: %s", body)
	}
	if !strings.Contains(body, "Width must be a number") {
		t.Errorf("JSON response should contain field message: %s", body)
	}

	req = httptest.NewRequest("POST", "/nav/viewport", nil)
	rec = httptest.NewRecorder()
	ValidationErrorResponse(rec, req, discardLogger(), ve)
	if !strings.Contains(rec.Body.String(), "check your input") {
		t.Errorf("text response should have guidance, got: %s", rec.Body.String())
	}
}

// mockDatabaseError simulates a database error for testing
type mockDatabaseError struct {
	message string
}

func (e *mockDatabaseError) Error() string {
	return e.message
}
