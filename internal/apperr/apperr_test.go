package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeUnwrapsChain(t *testing.T) {
	err := fmt.Errorf("get todo: %w", NotFound("todo not found"))
	if got := Code(err); got != ENotFound {
		t.Errorf("Code = %q, want %q", got, ENotFound)
	}
	if !Is(err, ENotFound) {
		t.Error("expected Is(err, ENotFound)")
	}
}

func TestCodePlainError(t *testing.T) {
	if got := Code(errors.New("boom")); got != EInternal {
		t.Errorf("Code = %q, want %q", got, EInternal)
	}
	if got := Code(nil); got != "" {
		t.Errorf("Code(nil) = %q, want empty", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{EInvalid, http.StatusBadRequest},
		{EConflict, http.StatusBadRequest},
		{EUnauthorized, http.StatusUnauthorized},
		{EForbidden, http.StatusForbidden},
		{ENotFound, http.StatusNotFound},
		{EInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.code); got != tt.want {
			t.Errorf("HTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestErrorString(t *testing.T) {
	err := &Error{
		Code:   EInvalid,
		Msg:    "validation failed",
		Fields: map[string]string{"name": "is required", "items[0].quantity": "must be >= 0"},
	}
	want := "validation failed (items[0].quantity: must be >= 0, name: is required)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := Internal("insert todo", errors.New("disk full"))
	if got := wrapped.Error(); got != "insert todo: internal error: disk full" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(wrapped, wrapped.Err) {
		t.Error("expected Unwrap to expose cause")
	}
}
