package symbolic

import (
	"math/big"
	"testing"

	"github.com/sambeau/quanta/pkg/quanta/errors"
)

func mustExpression(t *testing.T, input string) *Expression {
	t.Helper()
	expr, err := NewExpression(input)
	if err != nil {
		t.Fatalf("NewExpression(%q) returned error: %v", input, err)
	}
	return expr
}

func TestExpression_Equal(t *testing.T) {
	tests := []struct {
		name  string
		a     string
		b     string
		equal bool
	}{
		{name: "identical", a: "a * b", b: "a * b", equal: true},
		{name: "order irrelevant", a: "a * b", b: "b * a", equal: true},
		{name: "division as negative exponent", a: "m / s", b: "m * s^-1", equal: true},
		{name: "grouped form", a: "(a * b^2)^3", b: "a^3 * b^6", equal: true},
		{name: "different exponents", a: "a^2", b: "a^3", equal: false},
		{name: "different coefficients", a: "2a", b: "3a", equal: false},
		{name: "different bases", a: "a", b: "b", equal: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustExpression(t, tt.a)
			b := mustExpression(t, tt.b)
			if got := a.Equal(b); got != tt.equal {
				t.Errorf("Equal(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.equal)
			}
			if got := a.EqualString(tt.b); got != tt.equal {
				t.Errorf("EqualString(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.equal)
			}
		})
	}
}

func TestExpression_Multiply(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected string
	}{
		{name: "disjoint bases", a: "a", b: "b", expected: "a * b"},
		{name: "common base", a: "a * b^2", b: "a^2 / b", expected: "a^3 * b"},
		{name: "cancellation", a: "m / s", b: "s / m", expected: "1"},
		{name: "coefficients multiply", a: "2a", b: "3b", expected: "6 * a * b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustExpression(t, tt.a).Multiply(mustExpression(t, tt.b))
			if !got.EqualString(tt.expected) {
				t.Errorf("(%q) * (%q) = %q, want %q", tt.a, tt.b, got.Format(), tt.expected)
			}
		})
	}
}

func TestExpression_Divide(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected string
	}{
		{name: "disjoint bases", a: "a", b: "b", expected: "a / b"},
		{name: "common base", a: "m / s", b: "s", expected: "m * s^-2"},
		{name: "self division", a: "kg * m^2 / s^2", b: "kg * m^2 / s^2", expected: "1"},
		{name: "coefficients divide", a: "6a", b: "3a", expected: "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustExpression(t, tt.a).Divide(mustExpression(t, tt.b))
			if !got.EqualString(tt.expected) {
				t.Errorf("(%q) / (%q) = %q, want %q", tt.a, tt.b, got.Format(), tt.expected)
			}
		})
	}
}

func TestExpression_Pow(t *testing.T) {
	got, err := mustExpression(t, "a * b^2").Pow(big.NewRat(3, 1))
	if err != nil {
		t.Fatalf("Pow returned error: %v", err)
	}
	if !got.EqualString("a^3 * b^6") {
		t.Errorf("(a * b^2)^3 = %q, want a^3 b^6", got.Format())
	}
	half, err := mustExpression(t, "m^2 / s^2").Pow(big.NewRat(1, 2))
	if err != nil {
		t.Fatalf("Pow returned error: %v", err)
	}
	if !half.EqualString("m / s") {
		t.Errorf("(m^2 / s^2)^(1/2) = %q, want m s^-1", half.Format())
	}
}

func TestExpression_Pow_ZeroExponent(t *testing.T) {
	if _, err := mustExpression(t, "a").Pow(new(big.Rat)); !errors.Is(err, "PARSE-0005") {
		t.Errorf("Pow(0) error = %v, want PARSE-0005", err)
	}
}

func TestExpression_IsUnity(t *testing.T) {
	tests := []struct {
		input string
		unity bool
	}{
		{input: "1", unity: true},
		{input: "a / a", unity: true},
		{input: "a", unity: false},
		{input: "2", unity: false},
	}
	for _, tt := range tests {
		if got := mustExpression(t, tt.input).IsUnity(); got != tt.unity {
			t.Errorf("IsUnity(%q) = %v, want %v", tt.input, got, tt.unity)
		}
	}
}

func TestExpression_FromParts(t *testing.T) {
	got, err := FromParts([]string{"a^3", "b", "c^-1"})
	if err != nil {
		t.Fatalf("FromParts returned error: %v", err)
	}
	if !got.EqualString("a^3 * b / c") {
		t.Errorf("FromParts = %q, want a^3 b c^-1", got.Format())
	}
}

func TestExpression_Differences(t *testing.T) {
	a := mustExpression(t, "a * b * c")
	b := mustExpression(t, "a * b * d")
	left, right := a.SplitDifference(b)
	if len(left) != 1 || left[0].Base != "c" {
		t.Errorf("left difference = %v, want [c]", left)
	}
	if len(right) != 1 || right[0].Base != "d" {
		t.Errorf("right difference = %v, want [d]", right)
	}
	sym := a.SymmetricDifference(b)
	if len(sym) != 2 {
		t.Errorf("symmetric difference has %d terms, want 2", len(sym))
	}
	if diff := a.Difference(a); len(diff) != 0 {
		t.Errorf("self difference = %v, want empty", diff)
	}
}

func TestCache_Get(t *testing.T) {
	cache := NewCache()
	first, err := cache.Get("m / s")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	second, err := cache.Get("m / s")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if first != second {
		t.Error("repeated lookups should return the memoized expression")
	}
	if _, err := cache.Get("a * * b"); err == nil {
		t.Error("Get should propagate parse errors")
	}
}
