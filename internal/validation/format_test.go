package validation

import (
	"errors"
	"testing"
)

type mode string

const (
	sandbox mode = "sandbox"
	dev     mode = "dev"
)

func TestFormatValidValues(t *testing.T) {
	got := FormatValidValues([]mode{sandbox, dev})
	want := "sandbox, dev"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestIsValidValue(t *testing.T) {
	if !IsValidValue(dev, []mode{sandbox, dev}) {
		t.Fatal("expected dev to be valid")
	}
	if IsValidValue(mode("prod"), []mode{sandbox, dev}) {
		t.Fatal("expected prod to be invalid")
	}
}

func TestFormatInvalidValueError(t *testing.T) {
	base := errors.New("invalid packager mode")
	err := FormatInvalidValueError(base, mode("prod"), []mode{sandbox, dev})
	if !errors.Is(err, base) {
		t.Fatalf("expected error to wrap %v", base)
	}

	want := "invalid packager mode: \"prod\" (valid: sandbox, dev)"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}
