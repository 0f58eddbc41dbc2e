package metric

import (
	"math"
	"math/big"
	"strings"
	"sync"

	"github.com/sambeau/quanta/pkg/quanta/errors"
	"github.com/sambeau/quanta/pkg/quanta/symbolic"
)

// Conversion is the result of a unit conversion: the factor that
// multiplies a quantity in U0 to express it in U1.
type Conversion struct {
	U0     string
	U1     string
	Factor float64
}

// Inverse returns the conversion in the opposite direction.
func (c Conversion) Inverse() Conversion {
	return Conversion{U0: c.U1, U1: c.U0, Factor: 1.0 / c.Factor}
}

func (c Conversion) String() string {
	return "('" + c.U0 + "' -> '" + c.U1 + "')"
}

var (
	convMu      sync.Mutex
	conversions = map[[2]string]Conversion{}
)

// NewConversion computes the conversion from u0 to u1, memoizing both
// the result and its inverse.
func NewConversion(u0, u1 string) (Conversion, error) {
	key := [2]string{u0, u1}
	convMu.Lock()
	cached, ok := conversions[key]
	convMu.Unlock()
	if ok {
		return cached, nil
	}
	factor := convert(u0, u1)
	if factor == 0 {
		return Conversion{}, errors.New("CONV-0001", map[string]any{
			"Source": u0, "Target": u1,
		})
	}
	c := Conversion{U0: u0, U1: u1, Factor: factor}
	convMu.Lock()
	conversions[key] = c
	conversions[[2]string{u1, u0}] = c.Inverse()
	convMu.Unlock()
	return c, nil
}

// ConversionFactor computes the numeric factor that converts u0 to u1.
func ConversionFactor(u0, u1 string) (float64, error) {
	c, err := NewConversion(u0, u1)
	if err != nil {
		return 0, err
	}
	return c.Factor, nil
}

// convert runs the conversion strategies in order: first treating both
// units as single strings, then as expressions to be converted term by
// term. A zero return means every strategy failed.
func convert(u0, u1 string) float64 {
	if factor := convertAsStrings(u0, u1); factor != 0 {
		return factor
	}
	return convertAsExpressions(u0, u1)
}

// convertAsStrings searches the conversion graph for a path from u0 to
// u1, rescaling through shared base units where necessary.
func convertAsStrings(u0, u1 string) float64 {
	visited := []string{}
	return recursiveConversion(&visited, u0, u1, 1.0)
}

func recursiveConversion(visited *[]string, u0, u1 string, scale float64) float64 {
	for _, seen := range *visited {
		if seen == u0 {
			return 0
		}
	}
	*visited = append(*visited, u0)
	if factor := standardConversion(u0, u1, scale); factor != 0 {
		return factor
	}
	for _, edge := range load().conversions.Adjacencies(u0) {
		if value := recursiveConversion(visited, edge.Unit, u1, scale); value != 0 {
			return edge.Weight * value
		}
	}
	return 0
}

func standardConversion(u0, u1 string, scale float64) float64 {
	if factor := simpleConversion(u0, u1, scale); factor != 0 {
		return factor
	}
	return rescaleConversion(u0, u1, scale)
}

// simpleConversion attempts, in order: the identity conversion, a
// defined conversion (including via aliases), and the metric ratio of
// two named units with the same base.
func simpleConversion(u0, u1 string, scale float64) float64 {
	if u0 == u1 {
		return scale
	}
	if found := searchDefined(u0, u1); found != 0 {
		return scale * found
	}
	ratio, err := Ratio(u0, u1)
	if err != nil {
		return 0
	}
	return scale * ratio
}

// rescaleConversion converts through an intermediate unit that shares
// a base unit with u0 (or, inverted, with u1). For example, 'MJ' to
// 'erg' resolves as ('MJ' -> 'J') * ('J' -> 'erg') even though only
// the latter is defined.
func rescaleConversion(u0, u1 string, scale float64) float64 {
	graph := load().conversions
	if !graph.HasNode(u0) {
		if computed := rescale(u0, u1); computed != 0 {
			return scale * computed
		}
	}
	if !graph.HasNode(u1) {
		if computed := rescale(u1, u0); computed != 0 {
			return scale / computed
		}
	}
	return 0
}

func rescale(u0, u1 string) float64 {
	n0, err := Named(u0)
	if err != nil {
		return 0
	}
	for _, ux := range load().conversions.Nodes() {
		nx, err := Named(ux)
		if err != nil || nx.Base != n0.Base {
			continue
		}
		if found := searchDefined(ux, u1); found != 0 {
			return (n0.Scale / nx.Scale) * found
		}
	}
	return 0
}

// searchDefined looks for a defined conversion between the two units,
// trying the canonical symbol and name of each as aliases.
func searchDefined(u0, u1 string) float64 {
	graph := load().conversions
	if weight, ok := graph.Weight(u0, u1); ok {
		return weight
	}
	for _, ux := range aliasesOf(u0) {
		for _, uy := range aliasesOf(u1) {
			if weight, ok := graph.Weight(ux, uy); ok {
				return weight
			}
		}
	}
	return 0
}

func aliasesOf(unit string) []string {
	aliases := []string{unit}
	if named, err := Named(unit); err == nil {
		aliases = append(aliases, named.Symbol, named.Name)
	}
	return aliases
}

// convertAsExpressions converts compound unit expressions term by
// term: it divides one expression by the other, drops dimensionless
// terms, and pairs the remaining terms by opposite exponent.
func convertAsExpressions(u0, u1 string) float64 {
	e0, err := exprCache.Get(u0)
	if err != nil {
		return 0
	}
	e1, err := exprCache.Get(u1)
	if err != nil {
		return 0
	}
	if e0.Equal(e1) {
		return 1.0
	}
	var terms []symbolic.Term
	for _, term := range e0.Divide(e1).Terms() {
		if !IsUnity(term.Base) {
			terms = append(terms, term)
		}
	}
	if factor := resolveTerms(terms); factor != 0 {
		return factor
	}
	return convertByDimensions(terms)
}

// convertByDimensions decomposes every term into base units and
// converts the result, catching conversions like 'N' to
// 'kg * m / s^2' that no string-level strategy can see.
func convertByDimensions(terms []symbolic.Term) float64 {
	factor := 1.0
	var decomposed []symbolic.Term
	for _, term := range terms {
		if scale, units, ok := decomposeUnitTerm(term); ok {
			decomposed = append(decomposed, units...)
			factor *= scale
		}
	}
	if len(decomposed) == 0 {
		return 0
	}
	if symbolic.FromTerms(decomposed).IsUnity() {
		return factor
	}
	cancelled := cancelTerms(decomposed)
	reduced := symbolic.Reduce(cancelled)
	if result := resolveTerms(reduced); result != 0 {
		return factor * result
	}
	return 0
}

// decomposeUnitTerm converts one unit term into base units. When the
// unit itself does not reduce, its canonical counterpart in each
// system is tried, folding the intermediate conversion factor into the
// result.
func decomposeUnitTerm(term symbolic.Term) (float64, []symbolic.Term, bool) {
	if units := reduceUnit(term.Base, term.Exponent); units != nil {
		return 1.0, units, true
	}
	named, err := Named(term.Base)
	if err != nil {
		return 0, nil, false
	}
	for _, system := range Systems {
		norm, err := named.Norm(system)
		if err != nil {
			continue
		}
		units := reduceUnit(norm.Symbol, term.Exponent)
		if units == nil {
			continue
		}
		if factor := convertAsStrings(term.Base, norm.Symbol); factor != 0 {
			exponent, _ := term.Exponent.Float64()
			return math.Pow(factor, exponent), units, true
		}
	}
	return 0, nil, false
}

// reduceUnit expresses a named unit in base units, distributing the
// given exponent over the reduction and folding the reduction scale
// into each term's coefficient.
func reduceUnit(base string, exponent *big.Rat) []symbolic.Term {
	named, err := Named(base)
	if err != nil {
		return nil
	}
	reduction, err := named.Reduce("")
	if err != nil || reduction == nil {
		return nil
	}
	e, _ := exponent.Float64()
	scale := ratFromFloat(math.Pow(reduction.Scale, e))
	units := reduction.Units()
	terms := make([]symbolic.Term, len(units))
	for i, unit := range units {
		terms[i] = unit.Pow(exponent).Scale(scale)
	}
	return terms
}

// cancelTerms removes pairs of terms with the same base and opposite
// exponents.
func cancelTerms(terms []symbolic.Term) []symbolic.Term {
	removed := make([]bool, len(terms))
	for i := range terms {
		if removed[i] {
			continue
		}
		negated := new(big.Rat).Neg(terms[i].Exponent)
		for j := range terms {
			if j == i || removed[j] {
				continue
			}
			if terms[j].Base == terms[i].Base && terms[j].Exponent.Cmp(negated) == 0 {
				removed[i] = true
				removed[j] = true
				break
			}
		}
	}
	var unmatched []symbolic.Term
	for i, term := range terms {
		if !removed[i] {
			unmatched = append(unmatched, term)
		}
	}
	return unmatched
}

// resolveTerms pairs terms of opposite exponent and multiplies their
// conversion factors. Every term must find a partner (or be a
// dimensionless named unit) for the result to count.
func resolveTerms(terms []symbolic.Term) float64 {
	if len(terms) <= 1 {
		return 0
	}
	removed := make([]bool, len(terms))
	factor := 1.0
	for i := range terms {
		if removed[i] {
			continue
		}
		value, j, ok := matchExponent(terms, removed, i)
		if !ok {
			continue
		}
		removed[i] = true
		if j >= 0 {
			removed[j] = true
		}
		factor *= value
	}
	for _, done := range removed {
		if !done {
			return 0
		}
	}
	return factor
}

// matchExponent finds a conversion partner for terms[i]: either the
// term is a dimensionless named unit, which matches itself at 1.0, or
// some other term has the opposite exponent and a convertible base.
func matchExponent(terms []symbolic.Term, removed []bool, i int) (float64, int, bool) {
	target := terms[i]
	if named, err := Named(target.Base); err == nil {
		if dimensions, err := named.Dimensions(); err == nil {
			unity := true
			for _, system := range Systems {
				if !dimensions[system].IsUnity() {
					unity = false
					break
				}
			}
			if unity {
				return 1.0, -1, true
			}
		}
	}
	negated := new(big.Rat).Neg(target.Exponent)
	for j := range terms {
		if j == i || removed[j] || terms[j].Exponent.Cmp(negated) != 0 {
			continue
		}
		if factor := convertAsStrings(target.Base, terms[j].Base); factor != 0 {
			exponent, _ := target.Exponent.Float64()
			return math.Pow(factor, exponent), j, true
		}
	}
	return 0, -1, false
}

var (
	converterMu sync.Mutex
	converters  = map[[2]string]*Converter{}
)

// Converter handles conversions for a unit of a known physical
// quantity. The quantity matters when converting to a metric system:
// 'cm / s' is the canonical CGS unit of both velocity and conductance,
// and those convert to different MKS units.
type Converter struct {
	unit          string
	quantity      string
	substitutions map[string]string
}

// NewConverter creates or retrieves the conversion handler for the
// given unit and quantity.
func NewConverter(unit, quantity string) (*Converter, error) {
	key := [2]string{unit, quantity}
	converterMu.Lock()
	cached, ok := converters[key]
	converterMu.Unlock()
	if ok {
		return cached, nil
	}
	substitutions, err := converterSubstitutions(quantity)
	if err != nil {
		return nil, err
	}
	current := unit
	if substituted, ok := substitutions[unit]; ok {
		current = substituted
	}
	c := &Converter{unit: current, quantity: quantity, substitutions: substitutions}
	converterMu.Lock()
	converters[key] = c
	converterMu.Unlock()
	return c, nil
}

// converterSubstitutions maps each metric system to the target unit
// for the given quantity. Mass-number quantities substitute the units
// of mass, so converting 'nuc' to MKS produces 'kg' rather than '1'.
func converterSubstitutions(quantity string) (map[string]string, error) {
	name := strings.ReplaceAll(strings.ToLower(quantity), "_", " ")
	if name == "mass number" {
		return load().property(propUnits, "mass")
	}
	return load().property(propUnits, quantity)
}

// Unit returns the unit from which this converter converts.
func (c *Converter) Unit() string {
	return c.unit
}

// Quantity returns the physical quantity of this converter's unit.
func (c *Converter) Quantity() string {
	return c.quantity
}

// To computes the conversion from the current unit to the target,
// which may be a unit or the name of a metric system.
func (c *Converter) To(target string) (Conversion, error) {
	unit := target
	if substituted, ok := c.substitutions[strings.ToLower(target)]; ok {
		unit = substituted
	}
	if c.unit == unit {
		return Conversion{U0: c.unit, U1: unit, Factor: 1.0}, nil
	}
	return NewConversion(c.unit, unit)
}

// Convert converts a source unit to a target unit or metric system.
// Converting to a system without an explicit quantity infers the
// quantity from the source unit, and fails when distinct quantities
// share the source unit in another system.
func Convert(source, target, quantity string) (Conversion, error) {
	if IsSystem(target) {
		if source == "1" {
			return NewConversion(source, "1")
		}
		if quantity == "" {
			if systemAmbiguous(source, strings.ToLower(target)) {
				return Conversion{}, errors.New("CONV-0002", map[string]any{
					"Source": source, "Target": target,
				})
			}
			expr, err := exprCache.Get(source)
			if err != nil {
				return Conversion{}, err
			}
			inferred, err := unitQuantity(expr)
			if err != nil {
				return Conversion{}, err
			}
			quantity = inferred.Format()
		}
		converter, err := NewConverter(source, quantity)
		if err != nil {
			return Conversion{}, err
		}
		return converter.To(strings.ToLower(target))
	}
	return NewConversion(source, target)
}

// systemAmbiguous reports whether converting the given unit to the
// named system is ambiguous: in some other system, more than one
// quantity uses this unit, and those quantities map to distinct units
// in the target system.
func systemAmbiguous(unit, system string) bool {
	expr, err := exprCache.Get(unit)
	if err != nil {
		return false
	}
	r := load()
	for _, other := range Systems {
		if other == system {
			continue
		}
		targets := map[string]struct{}{}
		for _, quantity := range r.quantityNames {
			units, err := r.property(propUnits, quantity)
			if err != nil {
				continue
			}
			if expr.EqualString(units[other]) {
				targets[units[system]] = struct{}{}
			}
		}
		if len(targets) > 1 {
			return true
		}
	}
	return false
}
