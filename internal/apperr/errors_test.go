package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCode(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"validation", Validation("items cannot be empty"), http.StatusBadRequest, "validation_failed"},
		{"not found", NotFound("order %d not found", 7), http.StatusNotFound, "not_found"},
		{"unauthenticated", Unauthenticated("missing token"), http.StatusUnauthorized, "unauthenticated"},
		{"forbidden", Forbidden("token is not valid"), http.StatusForbidden, "forbidden"},
		{"conflict", Conflict("in progress"), http.StatusConflict, "conflict"},
		{"persistence", Persistence(cause, "insert order"), http.StatusInternalServerError, "persistence_failed"},
		{"wrapped", fmt.Errorf("place order: %w", NotFound("table")), http.StatusNotFound, "not_found"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusCode(tt.err); got != tt.want {
				t.Fatalf("StatusCode() = %d, want %d", got, tt.want)
			}
			if got := Code(tt.err); got != tt.code {
				t.Fatalf("Code() = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestPersistenceKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Persistence(cause, "insert order")

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable")
	}
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence kind")
	}
	if err.Error() != "insert order" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
