package symbolic

import (
	"testing"

	"github.com/sambeau/quanta/pkg/quanta/errors"
)

// parseFormat parses the input and formats the reduced expression, so
// that the expectations below stay readable.
func parseFormat(t *testing.T, input string) string {
	t.Helper()
	expr, err := NewExpression(input)
	if err != nil {
		t.Fatalf("NewExpression(%q) returned error: %v", input, err)
	}
	return expr.Format()
}

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single variable", input: "a", expected: "a"},
		{name: "division", input: "a / b", expected: "a b^-1"},
		{name: "multiplication", input: "a * b", expected: "a b"},
		{name: "exponent", input: "b^2", expected: "b^2"},
		{name: "group distributes exponent", input: "(a * b^2)^3", expected: "a^3 b^6"},
		{name: "nested groups", input: "(a / (b * c))^2", expected: "a^2 b^-2 c^-2"},
		{name: "sqrt", input: "sqrt(a^2)", expected: "a"},
		{name: "sqrt of product", input: "sqrt(a * b^4)", expected: "b^2 a^1/2"},
		{name: "coefficients accumulate", input: "2a * 3b", expected: "6 a b"},
		{name: "division inverts coefficient", input: "a / 2b", expected: "1/2 a b^-1"},
		{name: "identical bases combine", input: "a * a^2", expected: "a^3"},
		{name: "cancellation leaves unity", input: "a / a", expected: "1"},
		{name: "higher exponents sort first", input: "kg * m^2 / s^2", expected: "m^2 kg s^-2"},
		{name: "alphabetical within an exponent", input: "c * a * b", expected: "a b c"},
		{name: "whitespace only", input: "   a   ", expected: "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseFormat(t, tt.input); got != tt.expected {
				t.Errorf("parse(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParser_Parse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
	}{
		{name: "dangling operator", input: "a * * b", code: "PARSE-0002"},
		{name: "unparseable text", input: "~x", code: "PARSE-0001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExpression(tt.input)
			if !errors.Is(err, tt.code) {
				t.Errorf("NewExpression(%q) error = %v, want %s", tt.input, err, tt.code)
			}
		})
	}
}

func TestParser_OperatorOrder(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
	}{
		{name: "repeated division", input: "a / b / c", code: "PARSE-0003"},
		{name: "multiplication after division", input: "a / b * c", code: "PARSE-0004"},
		{name: "grouping disambiguates division", input: "(a / b) / c", code: ""},
		{name: "grouping disambiguates multiplication", input: "a / (b * c)", code: ""},
		{name: "repeated multiplication is fine", input: "a * b * c", code: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExpressionWith(tt.input, OrderError)
			if tt.code == "" {
				if err != nil {
					t.Errorf("NewExpressionWith(%q) returned error: %v", tt.input, err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("NewExpressionWith(%q) error = %v, want %s", tt.input, err, tt.code)
			}
		})
	}
}

func TestParser_OrderIgnored(t *testing.T) {
	// The default policy reads strictly left to right.
	if got := parseFormat(t, "a / b / c"); got != "a b^-1 c^-1" {
		t.Errorf("a / b / c = %q, want a b^-1 c^-1", got)
	}
	if got := parseFormat(t, "a / b * c"); got != "a c b^-1" {
		t.Errorf("a / b * c = %q, want a c b^-1", got)
	}
}
