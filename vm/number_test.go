package vm

import (
	"math"
	"strings"
	"testing"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float32
		want string
	}{
		{0, "0"},
		{float32(math.Copysign(0, -1)), "0"},
		{42, "42"},
		{-7, "-7"},
		{3.5, "3.5"},
		{0.1, "0.1"},
		{1.0 / 3.0, "0.33333334"},
		{1000000, "1000000"},
		{2.5e-7, "2.5e-07"},
		{1e30, "1e+30"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumberRoundTrip(t *testing.T) {
	inputs := []float32{1, -1, 0.5, 0.1, 0.2, 0.3, 123.456, 1e-5, 9.999e20, 3.1415927, 1e-30, 6.02e23, -2.75}
	for _, f := range inputs {
		s := FormatNumber(f)
		got, ok := ParseNumber(s)
		if !ok {
			t.Errorf("ParseNumber(%q) failed", s)
			continue
		}
		if got != f {
			t.Errorf("round trip %v -> %q -> %v", f, s, got)
		}
		if strings.Contains(s, ".") && !strings.ContainsAny(s, "eE") {
			if strings.HasSuffix(s, "0") || strings.HasSuffix(s, ".") {
				t.Errorf("FormatNumber(%v) = %q has trailing zero or point", f, s)
			}
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want float32
	}{
		{"42", true, 42},
		{"-3.5", true, -3.5},
		{"+2", true, 2},
		{".5", true, 0.5},
		{"5.", true, 5},
		{"1e3", true, 1000},
		{"1E-2", true, 0.01},
		{"1e+5", true, 100000},
		{"", false, 0},
		{"-", false, 0},
		{"abc", false, 0},
		{"1e", false, 0},
		{"inf", false, 0},
		{"NaN", false, 0},
		{"0x10", false, 0},
		{"1_000", false, 0},
		{"3a", false, 0},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
