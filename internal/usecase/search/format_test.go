package search

import (
	"strings"
	"testing"
)

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"short", "hello", "hello"},
		{"exact", strings.Repeat("a", 300), strings.Repeat("a", 300)},
		{"one over", strings.Repeat("a", 301), strings.Repeat("a", 300) + "..."},
		{"multibyte", strings.Repeat("é", 305), strings.Repeat("é", 300) + "..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Preview(tc.in); got != tc.want {
				t.Errorf("Preview() returned %d runes, want %d", len([]rune(got)), len([]rune(tc.want)))
			}
		})
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.92, "92.00%"},
		{0.81, "81.00%"},
		{1, "100.00%"},
		{0, "0.00%"},
		{0.5, "50.00%"},
	}

	for _, tc := range tests {
		if got := Percent(tc.in); got != tc.want {
			t.Errorf("Percent(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
