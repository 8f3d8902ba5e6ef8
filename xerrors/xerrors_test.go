package xerrors

import (
	"errors"
	"testing"
)

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Fatal("wrapping nil should return nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Fatal("wrapping nil should return nil")
	}
}

func TestWrapPreservesChain(t *testing.T) {
	base := New("base failure")
	wrapped := Wrap(base, "loading settings")
	if !errors.Is(wrapped, base) {
		t.Fatal("wrapped error should match base via errors.Is")
	}
	if wrapped.Error() != "loading settings: base failure" {
		t.Fatalf("unexpected message: %s", wrapped.Error())
	}
}

func TestWithCode(t *testing.T) {
	err := WithCode(New("unknown database type"), "CONFIG")
	if GetCode(err) != "CONFIG" {
		t.Fatalf("expected code CONFIG, got %q", GetCode(err))
	}

	wrapped := Wrap(err, "forming connection string")
	if GetCode(wrapped) != "CONFIG" {
		t.Fatal("code should survive wrapping")
	}

	if GetCode(New("plain")) != "" {
		t.Fatal("plain error should have no code")
	}
}

func TestCombine(t *testing.T) {
	if Combine(nil, nil) != nil {
		t.Fatal("combining nils should return nil")
	}

	single := New("only")
	if Combine(nil, single) != single {
		t.Fatal("single error should be returned as-is")
	}

	first := New("first")
	second := New("second")
	combined := Combine(first, second)
	if !errors.Is(combined, first) || !errors.Is(combined, second) {
		t.Fatal("combined error should match both members")
	}
}
