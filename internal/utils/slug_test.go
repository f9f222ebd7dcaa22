package utils

import (
	"regexp"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple title", input: "Hello World", expected: "hello-world"},
		{name: "punctuation collapsed", input: "Summer -- Sale!!  2026", expected: "summer-sale-2026"},
		{name: "already a slug", input: "already-a-slug", expected: "already-a-slug"},
		{name: "surrounding noise trimmed", input: "  ---Fancy Title---  ", expected: "fancy-title"},
		{name: "mixed case", input: "CamelCase Words", expected: "camelcase-words"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSlugifyEmptyInputGetsToken(t *testing.T) {
	pattern := regexp.MustCompile(`^item-[0-9a-f]{8}$`)
	for _, input := range []string{"", "   ", "!!!", "中文标题"} {
		slug := Slugify(input)
		if !pattern.MatchString(slug) {
			t.Fatalf("expected token fallback for %q, got %q", input, slug)
		}
	}
}

func TestNewOrderNo(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD\d{14}[0-9A-F]{8}$`)

	first := NewOrderNo()
	if !pattern.MatchString(first) {
		t.Fatalf("unexpected order number format %q", first)
	}
	second := NewOrderNo()
	if first == second {
		t.Fatalf("expected distinct order numbers, got %q twice", first)
	}
	if !strings.HasPrefix(first, "ORD") {
		t.Fatalf("expected ORD prefix, got %q", first)
	}
}
