package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestConfigValidator_Chain(t *testing.T) {
	cv := NewConfigValidator("Config").
		Required("CopySuffix", "").
		RangeInt("MaxDepth", 0, 1, 100).
		NonNegative("Workers", -1).
		OneOf("LogLevel", "loud", []string{"debug", "info"})

	err := cv.Validate()
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok || len(joined.Unwrap()) != 4 {
		t.Fatalf("expected 4 errors, got %v", err)
	}
	for _, want := range []string{"Config.CopySuffix", "Config.MaxDepth", "Config.Workers", "Config.LogLevel"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("combined error missing %s: %v", want, err)
		}
	}
}

func TestConfigValidator_Valid(t *testing.T) {
	cv := NewConfigValidator("Config").
		Required("CopySuffix", "_Copy").
		RangeInt("MaxDepth", 10, 1, 100).
		NonNegative("Workers", 0).
		OneOf("LogLevel", "info", []string{"debug", "info"})

	if err := cv.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConfigValidator_CustomAndWhen(t *testing.T) {
	sentinel := errors.New("bad")

	err := NewConfigValidator("Export").
		Custom("Path", func() error { return sentinel }).
		When(false, func(cv *ConfigValidator) { cv.Required("Never", "") }).
		When(true, func(cv *ConfigValidator) { cv.Required("Always", "set") }).
		Validate()

	if !errors.Is(err, sentinel) || strings.Contains(err.Error(), "Never") {
		t.Errorf("unexpected errors: %v", err)
	}
}

func TestDefaultOr(t *testing.T) {
	if DefaultOr("", "_Copy") != "_Copy" || DefaultOr("x", "_Copy") != "x" {
		t.Error("DefaultOr string")
	}
	if DefaultOr(0, 7) != 7 {
		t.Error("DefaultOr int")
	}
}
