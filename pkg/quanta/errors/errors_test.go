package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNew_CatalogRendering(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		data    map[string]any
		class   ErrorClass
		message string
	}{
		{
			name:    "parse error",
			code:    "PARSE-0001",
			data:    map[string]any{"Text": "a / / b"},
			class:   ClassParse,
			message: "failed to parse 'a / / b'",
		},
		{
			name:    "ambiguous division",
			code:    "PARSE-0003",
			data:    map[string]any{"Text": "a / b / c"},
			class:   ClassParse,
			message: "the expression 'a / b / c' contains an ambiguous '/'",
		},
		{
			name:    "unknown unit",
			code:    "UNIT-0001",
			data:    map[string]any{"Unit": "furlong"},
			class:   ClassUnit,
			message: "unable to identify unit 'furlong'",
		},
		{
			name:    "undefined conversion",
			code:    "CONV-0001",
			data:    map[string]any{"Source": "m", "Target": "s"},
			class:   ClassConversion,
			message: "cannot convert 'm' to 's'",
		},
		{
			name:    "unknown system",
			code:    "SYS-0002",
			data:    map[string]any{"System": "si"},
			class:   ClassSystem,
			message: "unknown metric system 'si'",
		},
		{
			name:    "unknown quantity",
			code:    "QTY-0001",
			data:    map[string]any{"Quantity": "blorp"},
			class:   ClassQuantity,
			message: "unknown quantity 'blorp'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.data)
			if err.Class != tt.class {
				t.Errorf("Class = %q, want %q", err.Class, tt.class)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
			if err.Message != tt.message {
				t.Errorf("Message = %q, want %q", err.Message, tt.message)
			}
		})
	}
}

func TestNew_UnknownCode(t *testing.T) {
	err := New("NOPE-9999", map[string]any{"message": "something broke"})
	if err.Message != "something broke" {
		t.Errorf("Message = %q, want %q", err.Message, "something broke")
	}
}

func TestIs(t *testing.T) {
	err := New("CONV-0001", map[string]any{"Source": "m", "Target": "s"})
	if !Is(err, "CONV-0001") {
		t.Error("Is should match the error's own code")
	}
	if Is(err, "CONV-0002") {
		t.Error("Is should not match a different code")
	}
	wrapped := fmt.Errorf("while converting: %w", err)
	if !Is(wrapped, "CONV-0001") {
		t.Error("Is should unwrap wrapped errors")
	}
	if Is(fmt.Errorf("plain"), "CONV-0001") {
		t.Error("Is should reject non-catalog errors")
	}
}

func TestClassOf(t *testing.T) {
	if got := ClassOf(New("SYS-0003", nil)); got != ClassSystem {
		t.Errorf("ClassOf = %q, want %q", got, ClassSystem)
	}
	if got := ClassOf(fmt.Errorf("plain")); got != "" {
		t.Errorf("ClassOf(plain) = %q, want empty", got)
	}
}

func TestErrorHints(t *testing.T) {
	err := New("PARSE-0003", map[string]any{"Text": "a / b / c"})
	if len(err.Hints) == 0 {
		t.Fatal("PARSE-0003 should carry grouping hints")
	}
	if !strings.Contains(err.Error(), "group the ratio") {
		t.Errorf("Error() should include the hint, got %q", err.Error())
	}
}

func TestPrettyString(t *testing.T) {
	tests := []struct {
		name     string
		err      *QuantaError
		contains []string
	}{
		{
			name:     "parse header",
			err:      New("PARSE-0002", map[string]any{"Text": "* m"}),
			contains: []string{"Parse error:", "operator without operand"},
		},
		{
			name:     "conversion header",
			err:      New("CONV-0002", map[string]any{"Source": "cm / s", "Target": "mks"}),
			contains: []string{"Conversion error:", "ambiguous", "Use: "},
		},
		{
			name:     "metric header",
			err:      New("UNIT-0002", map[string]any{"U0": "m", "U1": "J"}),
			contains: []string{"Metric error:", "different base units"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pretty := tt.err.PrettyString()
			for _, want := range tt.contains {
				if !strings.Contains(pretty, want) {
					t.Errorf("PrettyString() = %q, missing %q", pretty, want)
				}
			}
		})
	}
}

func TestFindClosestMatch(t *testing.T) {
	units := []string{"m", "km", "kg", "J", "erg", "joule", "meter", "second"}
	tests := []struct {
		input string
		want  string
	}{
		{"joul", "joule"},
		{"metre", "meter"},
		{"secund", "second"},
		{"furlong", ""},
		{"m", ""}, // exact match needs no suggestion
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FindClosestMatch(tt.input, units); got != tt.want {
				t.Errorf("FindClosestMatch(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewUnknownUnit(t *testing.T) {
	err := NewUnknownUnit("joul", []string{"joule", "erg"})
	if !Is(err, "UNIT-0001") {
		t.Fatal("NewUnknownUnit should produce a UNIT-0001 error")
	}
	found := false
	for _, hint := range err.Hints {
		if strings.Contains(hint, "joule") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a 'Did you mean' hint, got %v", err.Hints)
	}
}

func TestToJSON(t *testing.T) {
	err := New("QTY-0002", map[string]any{"Quantity": "energy", "System": "imperial"})
	raw, jerr := err.ToJSON()
	if jerr != nil {
		t.Fatalf("ToJSON error: %v", jerr)
	}
	for _, want := range []string{`"class":"quantity"`, `"code":"QTY-0002"`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("JSON %s missing %s", raw, want)
		}
	}
}
