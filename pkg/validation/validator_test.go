package validation

import (
	"strings"
	"testing"
)

func TestValidatePropertyKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"custom_property", false},
		{"Designer", false},
		{"_private", false},
		{"", true},
		{"9lives", true},
		{"has space", true},
		{"@elements", true},
		{"applicationId", true},
		{strings.Repeat("a", 101), true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidatePropertyKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePropertyKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

type sample struct {
	Name  string `validate:"required"`
	Depth int    `validate:"min=1,max=10"`
	Level string `validate:"oneof=debug info"`
}

func TestValidateStruct(t *testing.T) {
	if err := ValidateStruct(&sample{Name: "x", Depth: 3, Level: "info"}); err != nil {
		t.Errorf("valid struct: %v", err)
	}

	err := ValidateStruct(&sample{Depth: 20, Level: "loud"})
	if err == nil {
		t.Fatal("expected validation errors")
	}
	msg := err.Error()
	for _, want := range []string{"sample.Name: field is required", "sample.Depth: must not exceed 10", "sample.Level: must be one of [debug info]"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}

	if err := ValidateStruct(nil); err == nil {
		t.Error("nil value should fail")
	}
}
