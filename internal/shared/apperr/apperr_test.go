package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesKindSentinel(t *testing.T) {
	err := fmt.Errorf("load project: %w", NotFound("project"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected wrapped not found to match sentinel")
	}
	if errors.Is(err, ErrValidation) {
		t.Fatalf("did not expect validation match")
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := Validation("FILE_TOO_LARGE", "too big")
	if !errors.Is(err, Validation("FILE_TOO_LARGE", "")) {
		t.Fatalf("expected code match")
	}
	if errors.Is(err, Validation("UNSUPPORTED_FORMAT", "")) {
		t.Fatalf("did not expect match on different code")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("x", "bad"), http.StatusBadRequest},
		{Extraction("x", "parse", nil), http.StatusUnprocessableEntity},
		{NotFound("task"), http.StatusNotFound},
		{Conflict("PROJECT_SEALED", "sealed"), http.StatusConflict},
		{Forbidden("nope"), http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(KindOf(tt.err)); got != tt.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Extraction("UNSUPPORTED_FORMAT", "cannot parse", errors.New("zip: not a valid zip file"))
	want := "UNSUPPORTED_FORMAT: cannot parse: zip: not a valid zip file"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
	if CodeOf(err) != "UNSUPPORTED_FORMAT" {
		t.Fatalf("unexpected code %q", CodeOf(err))
	}
}
