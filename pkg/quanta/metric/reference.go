package metric

import (
	"embed"
	"math"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Systems holds the names of the metric systems known to this package.
var Systems = []string{"mks", "cgs"}

// IsSystem reports whether the given name identifies a known metric
// system.
func IsSystem(name string) bool {
	lowered := strings.ToLower(name)
	for _, system := range Systems {
		if system == lowered {
			return true
		}
	}
	return false
}

// IsUnity reports whether the given string represents a dimensionless
// unit.
func IsUnity(unit string) bool {
	return unit == "1" || unit == "#"
}

// BaseUnits returns the defined base units, in table order.
func BaseUnits() []BaseUnit {
	units := load().units
	out := make([]BaseUnit, len(units))
	copy(out, units)
	return out
}

// SpeedOfLight is the speed of light in cm/s. Several CGS
// electromagnetic conversion factors derive from it.
const SpeedOfLight = 2.99792458e10

// Prefix is a metric order-of-magnitude prefix.
type Prefix struct {
	Symbol string  `yaml:"symbol"`
	Name   string  `yaml:"name"`
	Factor float64 `yaml:"factor"`
}

// BaseUnit is a named unit without a metric prefix.
type BaseUnit struct {
	Symbol   string `yaml:"symbol"`
	Name     string `yaml:"name"`
	Quantity string `yaml:"quantity"`
}

// BaseQuantity pairs an irreducible physical quantity with its
// dimension symbol and canonical MKS unit.
type BaseQuantity struct {
	Name      string `yaml:"name"`
	Dimension string `yaml:"dimension"`
	Unit      string `yaml:"unit"`
}

// quantityDef is one entry in the quantities table: either a reference
// to another quantity (possibly compound) or explicit per-system
// dimensions and units.
type quantityDef struct {
	Ref        string
	Dimensions map[string]string
	Units      map[string]string
}

func (q *quantityDef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&q.Ref)
	}
	var full struct {
		Dimensions map[string]string `yaml:"dimensions"`
		Units      map[string]string `yaml:"units"`
	}
	if err := node.Decode(&full); err != nil {
		return err
	}
	q.Dimensions = full.Dimensions
	q.Units = full.Units
	return nil
}

// namedUnitDef pairs a prefix with a base unit for one named unit.
type namedUnitDef struct {
	Prefix Prefix
	Base   BaseUnit
}

// reference holds all the loaded and derived unit metadata.
type reference struct {
	prefixes       []Prefix
	units          []BaseUnit
	baseQuantities []BaseQuantity
	quantities     map[string]quantityDef
	quantityNames  []string
	multiword      []string
	named          map[string]namedUnitDef
	conversions    *Graph

	mu         sync.Mutex
	properties map[propertyKey]map[string]string
}

var (
	refOnce sync.Once
	ref     *reference
)

// load parses the embedded reference tables on first use. The tables
// are compiled into the binary, so a failure here is a build defect.
func load() *reference {
	refOnce.Do(func() {
		r, err := loadReference()
		if err != nil {
			panic("metric: invalid embedded reference data: " + err.Error())
		}
		ref = r
	})
	return ref
}

func loadReference() (*reference, error) {
	r := &reference{
		properties: map[propertyKey]map[string]string{},
	}
	if err := decodeData("data/prefixes.yaml", &r.prefixes); err != nil {
		return nil, err
	}
	if err := decodeData("data/units.yaml", &r.units); err != nil {
		return nil, err
	}
	var quantities struct {
		Base       []BaseQuantity         `yaml:"base"`
		Quantities map[string]quantityDef `yaml:"quantities"`
	}
	if err := decodeData("data/quantities.yaml", &quantities); err != nil {
		return nil, err
	}
	r.baseQuantities = quantities.Base
	r.quantities = quantities.Quantities
	for name := range r.quantities {
		r.quantityNames = append(r.quantityNames, name)
		if strings.Contains(name, " ") {
			r.multiword = append(r.multiword, name)
		}
	}
	sort.Strings(r.quantityNames)
	// Replace longer names first so that no name clobbers a name it is
	// a substring of.
	sort.Slice(r.multiword, func(i, j int) bool {
		return len(r.multiword[i]) > len(r.multiword[j])
	})
	r.named = buildNamedUnits(r.prefixes, r.units)
	r.conversions = buildConversions()
	return r, nil
}

func decodeData(name string, out any) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, out)
}

// buildNamedUnits builds the index of every (prefix, base unit)
// combination. The unitless unit takes no prefix, and the null prefix
// combines with nothing. Micro-prefixed units also register under a
// 'u' alias for keyboards without 'μ'.
func buildNamedUnits(prefixes []Prefix, units []BaseUnit) map[string]namedUnitDef {
	var base, null Prefix
	for _, prefix := range prefixes {
		switch prefix.Factor {
		case 1.0:
			base = prefix
		case 0.0:
			null = prefix
		}
	}
	mapped := map[string]namedUnitDef{}
	register := func(def namedUnitDef, keys ...string) {
		for _, key := range keys {
			mapped[normalizeUnit(key)] = def
		}
	}
	for _, unit := range units {
		if unit.Quantity == "identity" {
			register(namedUnitDef{Prefix: base, Base: unit}, unit.Symbol, unit.Name)
			continue
		}
		for _, prefix := range prefixes {
			switch {
			case prefix == base:
				register(namedUnitDef{Prefix: base, Base: unit}, unit.Symbol, unit.Name)
			case prefix != null:
				keys := []string{
					prefix.Symbol + unit.Symbol,
					prefix.Name + unit.Name,
				}
				if prefix.Symbol == "μ" {
					keys = append(keys, "u"+unit.Symbol)
				}
				register(namedUnitDef{Prefix: prefix, Base: unit}, keys...)
			}
		}
	}
	return mapped
}

// normalizeUnit puts a unit string into the canonical form used for
// index lookups. NFKC folds compatibility characters, notably the
// micro sign (U+00B5) into Greek mu (U+03BC) and the ohm sign (U+2126)
// into Greek omega (U+03A9).
func normalizeUnit(s string) string {
	return norm.NFKC.String(strings.TrimSpace(s))
}

// lookupNamed finds the definition of a named unit, if it exists.
func lookupNamed(unit string) (namedUnitDef, bool) {
	def, ok := load().named[normalizeUnit(unit)]
	return def, ok
}

// buildConversions assembles the graph of defined conversions. Edges
// absent from this table are derived at conversion time, either by
// walking the graph or by decomposing units into base units.
func buildConversions() *Graph {
	c := SpeedOfLight
	return NewGraph(map[[2]string]float64{
		{"Rs", "m"}:              6.96e8,
		{"F", "cm"}:              c * c * 1e-9,
		{"C", "statC"}:           10 * c,
		{"e", "C"}:               1.6022e-19,
		{"S", "cm / s"}:          c * c * 1e-5,
		{"A", "statA"}:           10 * c,
		{"Gy", "erg / g"}:        1e4,
		{"J", "erg"}:             1e7,
		{"eV", "J"}:              1.6022e-19,
		{"N", "dyn"}:             1e5,
		{"ohm", "s / cm"}:        1e5 / (c * c),
		{"H", "s^2 / cm"}:        1e5 / (c * c),
		{"au", "m"}:              1.495978707e11,
		{"Wb", "Mx"}:             1e8,
		{"T", "G"}:               1e4,
		{"A / m", "Oe"}:          4 * math.Pi * 1e-3,
		{"nuc", "kg"}:            1.6605e-27,
		{"amu", "kg"}:            1.6605e-27,
		{"H / m", "1"}:           1e7 / 4 * math.Pi,
		{"F / m", "1"}:           36 * math.Pi * 1e9,
		{"rad", "deg"}:           180 / math.Pi,
		{"V", "statV"}:           1e6 / c,
		{"W", "erg / s"}:         1e7,
		{"Pa", "dyn / cm^2"}:     1e1,
		{"Bq", "Ci"}:             1.0 / 3.7e10,
		{"A / Wb", "1 / cm"}:     4 * math.Pi * 1e-9,
		{"s", "min"}:             1.0 / 60.0,
		{"s", "h"}:               1.0 / 3600.0,
		{"s", "d"}:               1.0 / 86400.0,
		{"Wb / m", "G * cm"}:     1e6,
		{"kg / (m * s)", "P"}:    1e1,
	})
}

// nonstandard maps unit spellings that appear in simulation output to
// units this package defines.
var nonstandard = map[string]string{
	"julian date":          "day",
	"shell":                "1",
	"cos(mu)":              "1",
	"e-":                   "e",
	"# / cm^2 s sr MeV":    "# / cm^2 s sr MeV/nuc",
}

// Standardize replaces a non-standard unit string with its standard
// form, if one is known, and groups everything after the first '/' so
// that shorthand like '# / cm^2 s sr' parses as a single denominator.
func Standardize(unit string) string {
	if standard, ok := nonstandard[unit]; ok {
		unit = standard
	}
	if i := strings.Index(unit, "/"); i >= 0 {
		num := strings.TrimSpace(unit[:i])
		den := strings.TrimSpace(unit[i+1:])
		return num + " / (" + den + ")"
	}
	return unit
}
