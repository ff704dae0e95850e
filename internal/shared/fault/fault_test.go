package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := New(KindSchema, "bad schema")
	if KindOf(err) != KindSchema {
		t.Fatalf("expected schema_error, got %s", KindOf(err))
	}

	wrapped := fmt.Errorf("outer: %w", Wrap(KindProvider, "upstream", errors.New("boom")))
	if KindOf(wrapped) != KindProvider {
		t.Fatalf("expected provider_error through wrapping, got %s", KindOf(wrapped))
	}

	if KindOf(errors.New("plain")) != KindExtraction {
		t.Fatalf("expected extraction_error default")
	}
}

func TestMessageOf(t *testing.T) {
	if got := MessageOf(New(KindDocument, "not found")); got != "not found" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := MessageOf(Wrap(KindProvider, "call failed", errors.New("timeout"))); got != "call failed: timeout" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := MessageOf(nil); got != "" {
		t.Fatalf("expected empty message for nil, got %q", got)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindSchema, "x", nil) != nil {
		t.Fatalf("expected nil for nil cause")
	}
}

func TestErrorString(t *testing.T) {
	err := Wrap(KindProfile, "resolve failed", errors.New("io"))
	want := "profile_error: resolve failed: io"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}
