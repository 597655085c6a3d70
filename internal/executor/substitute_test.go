package executor

import (
	"errors"
	"testing"
)

func TestSubstitute_Success(t *testing.T) {
	vars := map[string]string{
		"base_url": "http://example.com",
		"path":     "/api/data",
	}

	got, err := Substitute("{{base_url}}{{path}}?query=1", vars)
	if err != nil {
		t.Fatalf("Substitute: %v", err)
	}
	if got != "http://example.com/api/data?query=1" {
		t.Fatalf("got %q", got)
	}
}

func TestSubstitute_RepeatedPlaceholder(t *testing.T) {
	got, err := Substitute("{{h}}/{{h}}", map[string]string{"h": "x"})
	if err != nil {
		t.Fatalf("Substitute: %v", err)
	}
	if got != "x/x" {
		t.Fatalf("got %q", got)
	}
}

func TestSubstitute_Unresolved(t *testing.T) {
	vars := map[string]string{"base_url": "http://example.com"}

	_, err := Substitute("{{base_url}}{{path}}?query=1", vars)
	if err == nil {
		t.Fatal("expected error")
	}
	var execErr *Error
	if !errors.As(err, &execErr) || execErr.Kind != KindSubstitution {
		t.Fatalf("expected substitution error, got %v", err)
	}
	if execErr.Error() != "Variable substitution error: Unresolved variables found" {
		t.Fatalf("message: %q", execErr.Error())
	}
}

func TestSubstitute_BracesWithoutPairSurvive(t *testing.T) {
	// Only the combination of both {{ and }} trips the unresolved check.
	got, err := Substitute("open {{ only", nil)
	if err != nil {
		t.Fatalf("Substitute: %v", err)
	}
	if got != "open {{ only" {
		t.Fatalf("got %q", got)
	}

	if _, err := Substitute("{{a}} and {{b}}", map[string]string{"a": "1"}); err == nil {
		t.Fatal("expected error for leftover placeholder")
	}
}
