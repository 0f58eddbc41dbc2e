package metric

import (
	"math"
	"testing"

	"github.com/sambeau/quanta/pkg/quanta/errors"
	"github.com/sambeau/quanta/pkg/quanta/symbolic"
)

func mustNamed(t *testing.T, unit string) *NamedUnit {
	t.Helper()
	named, err := Named(unit)
	if err != nil {
		t.Fatalf("Named(%q) returned error: %v", unit, err)
	}
	return named
}

func TestNamed_Identification(t *testing.T) {
	tests := []struct {
		name   string
		unit   string
		symbol string
		full   string
		scale  float64
	}{
		{name: "bare base unit", unit: "m", symbol: "m", full: "meter", scale: 1.0},
		{name: "prefixed symbol", unit: "km", symbol: "km", full: "kilometer", scale: 1e3},
		{name: "prefixed name", unit: "centimeter", symbol: "cm", full: "centimeter", scale: 1e-2},
		{name: "megajoule", unit: "MJ", symbol: "MJ", full: "megajoule", scale: 1e6},
		{name: "ascii micro alias", unit: "um", symbol: "μm", full: "micrometer", scale: 1e-6},
		{name: "micro sign folds to mu", unit: "µm", symbol: "μm", full: "micrometer", scale: 1e-6},
		{name: "unitless", unit: "1", symbol: "1", full: "unitless", scale: 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			named := mustNamed(t, tt.unit)
			if named.Symbol != tt.symbol {
				t.Errorf("Symbol = %q, want %q", named.Symbol, tt.symbol)
			}
			if named.Name != tt.full {
				t.Errorf("Name = %q, want %q", named.Name, tt.full)
			}
			if named.Scale != tt.scale {
				t.Errorf("Scale = %g, want %g", named.Scale, tt.scale)
			}
		})
	}
}

func TestNamed_Singleton(t *testing.T) {
	pairs := [][2]string{
		{"km", "kilometer"},
		{"um", "μm"},
		{"J", "joule"},
	}
	for _, pair := range pairs {
		if mustNamed(t, pair[0]) != mustNamed(t, pair[1]) {
			t.Errorf("Named(%q) and Named(%q) are distinct instances", pair[0], pair[1])
		}
	}
}

func TestNamed_Unknown(t *testing.T) {
	_, err := Named("furlong")
	if !errors.Is(err, "UNIT-0001") {
		t.Fatalf("Named(\"furlong\") error = %v, want UNIT-0001", err)
	}
}

func TestNamed_Ratio(t *testing.T) {
	tests := []struct {
		name  string
		u0    string
		u1    string
		ratio float64
	}{
		{name: "meter to centimeter", u0: "m", u1: "cm", ratio: 1e2},
		{name: "centimeter to kilometer", u0: "cm", u1: "km", ratio: 1e-5},
		{name: "identical units", u0: "s", u1: "s", ratio: 1.0},
		{name: "megajoule to joule", u0: "MJ", u1: "J", ratio: 1e6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratio, err := Ratio(tt.u0, tt.u1)
			if err != nil {
				t.Fatalf("Ratio(%q, %q) returned error: %v", tt.u0, tt.u1, err)
			}
			if !closeTo(ratio, tt.ratio) {
				t.Errorf("Ratio(%q, %q) = %g, want %g", tt.u0, tt.u1, ratio, tt.ratio)
			}
		})
	}
}

func TestNamed_RatioRequiresSameBase(t *testing.T) {
	if _, err := Ratio("m", "s"); !errors.Is(err, "UNIT-0002") {
		t.Errorf("Ratio(\"m\", \"s\") error = %v, want UNIT-0002", err)
	}
	// J and erg measure the same quantity but differ in base unit, so
	// the ratio is still undefined.
	if _, err := Ratio("J", "erg"); !errors.Is(err, "UNIT-0002") {
		t.Errorf("Ratio(\"J\", \"erg\") error = %v, want UNIT-0002", err)
	}
}

func TestNamed_SystemTiers(t *testing.T) {
	tests := []struct {
		name        string
		unit        string
		fundamental []string
		defined     []string
		allowed     []string
	}{
		{
			name:        "meter",
			unit:        "m",
			fundamental: []string{"mks"},
			defined:     []string{"mks", "cgs"},
			allowed:     []string{"mks", "cgs"},
		},
		{
			name:        "gram",
			unit:        "g",
			fundamental: []string{"cgs"},
			defined:     []string{"mks", "cgs"},
			allowed:     []string{"mks", "cgs"},
		},
		{
			name:        "joule",
			unit:        "J",
			fundamental: []string{"mks"},
			defined:     []string{"mks"},
			allowed:     []string{"mks"},
		},
		{
			name:        "erg",
			unit:        "erg",
			fundamental: []string{"cgs"},
			defined:     []string{"cgs"},
			allowed:     []string{"cgs"},
		},
		{
			name:        "astronomical unit",
			unit:        "au",
			fundamental: nil,
			defined:     nil,
			allowed:     []string{"mks", "cgs"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiers := mustNamed(t, tt.unit).Tiers()
			if !sameStrings(tiers.Fundamental, tt.fundamental) {
				t.Errorf("Fundamental = %v, want %v", tiers.Fundamental, tt.fundamental)
			}
			if !sameStrings(tiers.Defined, tt.defined) {
				t.Errorf("Defined = %v, want %v", tiers.Defined, tt.defined)
			}
			if !sameStrings(tiers.Allowed, tt.allowed) {
				t.Errorf("Allowed = %v, want %v", tiers.Allowed, tt.allowed)
			}
		})
	}
}

func TestNamed_Dimensions(t *testing.T) {
	tests := []struct {
		name string
		unit string
		mks  string
		cgs  string
	}{
		{name: "meter in both systems", unit: "m", mks: "L", cgs: "L"},
		{name: "joule only in mks", unit: "J", mks: "M * L^2 / T^2", cgs: ""},
		{name: "erg only in cgs", unit: "erg", mks: "", cgs: "M * L^2 / T^2"},
		{name: "coulomb carries charge dimension", unit: "C", mks: "I * T", cgs: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dimensions, err := mustNamed(t, tt.unit).Dimensions()
			if err != nil {
				t.Fatalf("Dimensions() returned error: %v", err)
			}
			checkDimension(t, "mks", dimensions["mks"], tt.mks)
			checkDimension(t, "cgs", dimensions["cgs"], tt.cgs)
		})
	}
}

func checkDimension(t *testing.T, system string, got *Dimension, want string) {
	t.Helper()
	if want == "" {
		if got != nil {
			t.Errorf("dimension in %s = %v, want undefined", system, got)
		}
		return
	}
	if got == nil {
		t.Fatalf("dimension in %s is undefined, want %q", system, want)
	}
	if !got.EqualString(want) {
		t.Errorf("dimension in %s = %v, want %q", system, got, want)
	}
}

func TestNamed_Norm(t *testing.T) {
	tests := []struct {
		name   string
		unit   string
		system string
		want   string
	}{
		{name: "kilometer normalizes to meter", unit: "km", system: "mks", want: "m"},
		{name: "erg normalizes to joule in mks", unit: "erg", system: "mks", want: "J"},
		{name: "joule normalizes to erg in cgs", unit: "J", system: "cgs", want: "erg"},
		{name: "gram normalizes to kilogram", unit: "g", system: "mks", want: "kg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			norm, err := mustNamed(t, tt.unit).Norm(tt.system)
			if err != nil {
				t.Fatalf("Norm(%q) returned error: %v", tt.system, err)
			}
			if norm.Symbol != tt.want {
				t.Errorf("Norm(%q) = %q, want %q", tt.system, norm.Symbol, tt.want)
			}
		})
	}
}

func TestNamed_Reduce(t *testing.T) {
	tests := []struct {
		name   string
		unit   string
		system string
		expr   string
		scale  float64
	}{
		{name: "joule into mks base units", unit: "J", system: "mks", expr: "kg * m^2 / s^2", scale: 1.0},
		{name: "erg into cgs base units", unit: "erg", system: "cgs", expr: "g * cm^2 / s^2", scale: 1.0},
		{name: "kilometer rescales to meter", unit: "km", system: "mks", expr: "m", scale: 1e3},
		{name: "newton resolves its own system", unit: "N", system: "", expr: "kg * m / s^2", scale: 1.0},
		{name: "second is already fundamental", unit: "s", system: "mks", expr: "s", scale: 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reduction, err := mustNamed(t, tt.unit).Reduce(tt.system)
			if err != nil {
				t.Fatalf("Reduce(%q) returned error: %v", tt.system, err)
			}
			if reduction == nil {
				t.Fatalf("Reduce(%q) = nil, want %q", tt.system, tt.expr)
			}
			if !closeTo(reduction.Scale, tt.scale) {
				t.Errorf("Scale = %g, want %g", reduction.Scale, tt.scale)
			}
			if !symbolic.FromTerms(reduction.Units()).EqualString(tt.expr) {
				t.Errorf("Units() = %v, want %q", reduction.Units(), tt.expr)
			}
		})
	}
}

func TestNamed_ReduceUndefined(t *testing.T) {
	// erg does not belong to MKS, so the reduction is nil.
	reduction, err := mustNamed(t, "erg").Reduce("mks")
	if err != nil {
		t.Fatalf("Reduce(\"mks\") returned error: %v", err)
	}
	if reduction != nil {
		t.Errorf("Reduce(\"mks\") = %v, want nil", reduction)
	}
}

func closeTo(got, want float64) bool {
	if want == 0 {
		return got == 0
	}
	return math.Abs(got/want-1) < 1e-12
}

func sameStrings(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
