package repl

import (
	"bytes"
	"strings"
	"testing"
)

func TestSplitConversion(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		source   string
		target   string
		quantity string
		ok       bool
	}{
		{name: "unit to unit", input: "km to m", source: "km", target: "m", ok: true},
		{name: "compound units", input: "km / h to m / s", source: "km / h", target: "m / s", ok: true},
		{name: "with quantity", input: "cm / s to mks as velocity", source: "cm / s", target: "mks", quantity: "velocity", ok: true},
		{name: "no keyword", input: "km / h", ok: false},
		{name: "missing target", input: "km to ", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, target, quantity, ok := splitConversion(tt.input)
			if ok != tt.ok {
				t.Fatalf("splitConversion(%q) ok = %t, want %t", tt.input, ok, tt.ok)
			}
			if !ok {
				return
			}
			if source != tt.source || target != tt.target || quantity != tt.quantity {
				t.Errorf("splitConversion(%q) = (%q, %q, %q), want (%q, %q, %q)",
					tt.input, source, target, quantity, tt.source, tt.target, tt.quantity)
			}
		})
	}
}

func TestEval(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
	}{
		{name: "conversion", input: "km to m", contains: "1000"},
		{name: "conversion to system", input: "G to mks", contains: "0.0001"},
		{name: "unit reduces", input: "kg * m^2 / s^2", contains: "m^2 kg s^-2"},
		{name: "unit reports quantity", input: "m / s", contains: "quantity:"},
		{name: "dimension query", input: "dim J", contains: "mks: L^2 M T^-2"},
		{name: "symbolic fallback", input: "a^2 * b / a", contains: "a b"},
		{name: "undefined conversion", input: "m to s", contains: "cannot convert"},
		{name: "unknown unit", input: "furlong to m", contains: "cannot convert"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			Eval(&out, tt.input, false)
			if !strings.Contains(out.String(), tt.contains) {
				t.Errorf("Eval(%q) output %q does not contain %q", tt.input, out.String(), tt.contains)
			}
		})
	}
}

func TestEval_StrictMode(t *testing.T) {
	var out bytes.Buffer
	Eval(&out, "a / b / c", true)
	if !strings.Contains(out.String(), "ambiguous") {
		t.Errorf("strict Eval output %q should flag the ambiguous '/'", out.String())
	}
}
