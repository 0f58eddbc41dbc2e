package metric

import (
	"math/big"
	"strings"
	"sync"

	"github.com/sambeau/quanta/pkg/quanta/errors"
	"github.com/sambeau/quanta/pkg/quanta/symbolic"
)

// Unit is a symbolic expression representing a physical unit. Units
// are singletons keyed by their canonical symbolic form: 'm / s',
// 'meter / second', and 'm s^-1' all resolve to the same instance.
type Unit struct {
	expr *symbolic.Expression

	mu            sync.Mutex
	dimensions    Dimensions
	decomposed    []symbolic.Term
	quantity      *symbolic.Expression
	dimensionless *bool
}

var (
	unitMu       sync.RWMutex
	unitRegistry = map[string]*Unit{}
)

// NewUnit creates or retrieves the unit for the given expression.
// Every term must correspond to a named unit; the canonical form of
// the instance uses unit symbols, so 'meter / second' maps to 'm /
// s'.
func NewUnit(arg string) (*Unit, error) {
	unitMu.RLock()
	existing, ok := unitRegistry[arg]
	unitMu.RUnlock()
	if ok {
		return existing, nil
	}
	expr, err := exprCache.Get(arg)
	if err != nil {
		return nil, err
	}
	symbols := make([]symbolic.Term, 0, expr.Len())
	for _, term := range expr.Terms() {
		def, ok := lookupNamed(term.Base)
		if !ok {
			return nil, unknownUnit(term.Base)
		}
		symbol, err := symbolic.NewTermWith(
			nil, def.Prefix.Symbol+def.Base.Symbol, term.Exponent,
		)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, symbol)
	}
	instance := &Unit{expr: symbolic.FromTerms(symbols)}
	name := instance.expr.Format()
	unitMu.Lock()
	defer unitMu.Unlock()
	if existing, ok := unitRegistry[name]; ok {
		unitRegistry[arg] = existing
		return existing, nil
	}
	aliases := []string{name, arg}
	if named, err := Named(name); err == nil {
		aliases = append(aliases, named.Name, named.Symbol)
	}
	for _, alias := range aliases {
		unitRegistry[alias] = instance
	}
	return instance, nil
}

// unitFromTerms builds a unit from reduced symbolic terms.
func unitFromTerms(terms []symbolic.Term) (*Unit, error) {
	return NewUnit(symbolic.FromTerms(terms).Format())
}

// Expression returns the symbolic form of this unit.
func (u *Unit) Expression() *symbolic.Expression {
	return u.expr
}

func (u *Unit) Format() string {
	return u.expr.Format()
}

func (u *Unit) String() string {
	return u.Format()
}

// Mul multiplies two units. Both operands decompose into base units
// first so the product reduces as far as possible.
func (u *Unit) Mul(other *Unit) (*Unit, error) {
	if u == other || u.Equal(other) {
		return u.Pow(big.NewRat(2, 1))
	}
	a, err := u.Decomposed()
	if err != nil {
		return nil, err
	}
	b, err := other.Decomposed()
	if err != nil {
		return nil, err
	}
	return unitFromTerms(symbolic.Reduce(a, b))
}

// Div divides this unit by another, decomposing both into base units
// first.
func (u *Unit) Div(other *Unit) (*Unit, error) {
	if u == other || u.Equal(other) {
		return NewUnit("1")
	}
	a, err := u.Decomposed()
	if err != nil {
		return nil, err
	}
	b, err := other.Decomposed()
	if err != nil {
		return nil, err
	}
	inverted := make([]symbolic.Term, len(b))
	minusOne := big.NewRat(-1, 1)
	for i, term := range b {
		inverted[i] = term.Pow(minusOne)
	}
	return unitFromTerms(symbolic.Reduce(a, inverted))
}

// Pow raises this unit to the given power.
func (u *Unit) Pow(exponent *big.Rat) (*Unit, error) {
	raised, err := u.expr.Pow(exponent)
	if err != nil {
		return nil, err
	}
	return NewUnit(raised.Format())
}

// Equal reports whether two units have symbolically equal expressions.
func (u *Unit) Equal(other *Unit) bool {
	if u == other {
		return true
	}
	return u.expr.Equal(other.expr)
}

// EqualString parses the given unit string and compares it to this
// unit.
func (u *Unit) EqualString(s string) bool {
	other, err := NewUnit(s)
	if err != nil {
		return false
	}
	return u.Equal(other)
}

// Equivalent reports whether two units represent the same physical
// unit even when their expressions differ: they are equal, differ only
// by dimensionless terms, decompose to the same base units, or convert
// with a factor of exactly 1.
func (u *Unit) Equivalent(other *Unit) bool {
	if u.Equal(other) {
		return true
	}
	onlyUnity := true
	for _, term := range u.expr.SymmetricDifference(other.expr) {
		if !IsUnity(term.Base) {
			onlyUnity = false
			break
		}
	}
	if onlyUnity {
		return true
	}
	if u.Dimensionless() != other.Dimensionless() {
		return false
	}
	a, err := u.Decomposed()
	if err != nil {
		return false
	}
	b, err := other.Decomposed()
	if err != nil {
		return false
	}
	if symbolic.FromTerms(a).Equal(symbolic.FromTerms(b)) {
		return true
	}
	factor, err := ConversionFactor(u.Format(), other.Format())
	return err == nil && factor == 1.0
}

// ConsistentWith reports whether this unit can convert to the other:
// they are equal or equivalent, share a dimension in some metric
// system, measure equivalent quantities, or have a defined conversion.
func (u *Unit) ConsistentWith(other *Unit) bool {
	if u.Equal(other) || u.Equivalent(other) {
		return true
	}
	mine := u.Dimensions()
	theirs := other.Dimensions()
	for _, system := range Systems {
		defined := mine[system]
		if defined == nil {
			continue
		}
		for _, given := range theirs {
			if defined.Equal(given) {
				return true
			}
		}
	}
	if equivalentQuantities(u, other) {
		return true
	}
	_, err := ConversionFactor(u.Format(), other.Format())
	return err == nil
}

// Dimensions returns this unit's dimension in each metric system. A
// nil entry means the dimension is undefined there.
func (u *Unit) Dimensions() Dimensions {
	u.mu.Lock()
	cached := u.dimensions
	u.mu.Unlock()
	if cached != nil {
		return cached
	}
	dimensions := Dimensions{}
	for _, system := range Systems {
		dimension, err := u.DimensionIn(system)
		if err != nil {
			dimension = nil
		}
		dimensions[system] = dimension
	}
	u.mu.Lock()
	u.dimensions = dimensions
	u.mu.Unlock()
	return dimensions
}

// DimensionIn computes this unit's dimension in the given system. Each
// term contributes the dimension of its named unit, raised to the
// term's exponent; a term defined in a single system contributes that
// system's dimension regardless of the requested one.
func (u *Unit) DimensionIn(system string) (*Dimension, error) {
	system = strings.ToLower(system)
	product, err := exprCache.Get("1")
	if err != nil {
		return nil, err
	}
	allowed := map[string]bool{}
	for _, term := range u.expr.Terms() {
		named, err := Named(term.Base)
		if err != nil {
			return nil, err
		}
		tiers := named.Tiers()
		dimensions, err := named.Dimensions()
		if err != nil {
			return nil, err
		}
		target := system
		if len(tiers.Allowed) == 1 {
			target = tiers.Allowed[0]
		}
		dimension := dimensions[target]
		if dimension == nil {
			return nil, errors.New("SYS-0004", map[string]any{
				"Unit": u.Format(), "System": system,
			})
		}
		raised, err := dimension.Expression().Pow(term.Exponent)
		if err != nil {
			return nil, err
		}
		product = product.Multiply(raised)
		for _, s := range tiers.Allowed {
			allowed[s] = true
		}
	}
	if !allowed[system] {
		return nil, errors.New("SYS-0004", map[string]any{
			"Unit": u.Format(), "System": system,
		})
	}
	return newDimension(product), nil
}

// Dimensionless reports whether this unit's dimension is '1' in every
// metric system.
func (u *Unit) Dimensionless() bool {
	u.mu.Lock()
	cached := u.dimensionless
	u.mu.Unlock()
	if cached != nil {
		return *cached
	}
	result := true
	for _, dimension := range u.Dimensions() {
		if !dimension.IsUnity() {
			result = false
			break
		}
	}
	u.mu.Lock()
	u.dimensionless = &result
	u.mu.Unlock()
	return result
}

// Decomposed returns this unit's representation in base units, where
// possible. Terms that do not decompose pass through unchanged.
func (u *Unit) Decomposed() ([]symbolic.Term, error) {
	u.mu.Lock()
	cached := u.decomposed
	u.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	decomposed, err := decomposeTerms(u.expr.Terms())
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	u.decomposed = decomposed
	u.mu.Unlock()
	return decomposed, nil
}

func decomposeTerms(terms []symbolic.Term) ([]symbolic.Term, error) {
	var parts []symbolic.Term
	for _, term := range terms {
		parts = append(parts, decomposeTerm(term)...)
	}
	return symbolic.Reduce(parts), nil
}

// decomposeTerm decomposes one unit term into base units. Parsing and
// ambiguity failures leave the term as-is rather than failing the
// whole decomposition.
func decomposeTerm(term symbolic.Term) []symbolic.Term {
	named, err := Named(term.Base)
	if err != nil {
		return []symbolic.Term{term}
	}
	bases, err := named.Decomposed()
	if err != nil || bases == nil {
		return []symbolic.Term{term}
	}
	raised := make([]symbolic.Term, len(bases))
	for i, base := range bases {
		raised[i] = base.Pow(term.Exponent)
	}
	return raised
}

// Quantity returns the symbolic expression of this unit's physical
// quantity, e.g. 'length / time' (as 'length time^-1') for 'm / s'.
func (u *Unit) Quantity() (*symbolic.Expression, error) {
	u.mu.Lock()
	cached := u.quantity
	u.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	quantity, err := unitQuantity(u.expr)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	u.quantity = quantity
	u.mu.Unlock()
	return quantity, nil
}

// unitQuantity maps each term of a unit expression to the quantity of
// its named unit.
func unitQuantity(expr *symbolic.Expression) (*symbolic.Expression, error) {
	parts := make([]string, 0, expr.Len())
	for _, term := range expr.Terms() {
		named, err := Named(term.Base)
		if err != nil {
			return nil, err
		}
		name := strings.ReplaceAll(named.Quantity, " ", "_")
		parts = append(parts, raiseGroup(name, term.Exponent))
	}
	return symbolic.FromParts(parts)
}

func equivalentQuantities(u0, u1 *Unit) bool {
	q0, err := u0.Quantity()
	if err != nil {
		return false
	}
	q1, err := u1.Quantity()
	if err != nil {
		return false
	}
	return q0.Equal(q1)
}

// Normalize represents this unit in base units of the given system.
// An explicit quantity can resolve ambiguity, e.g. between velocity
// and conductance for 'cm / s' in CGS.
func (u *Unit) Normalize(system, quantity string) (*Unit, error) {
	system = strings.ToLower(system)
	var terms *symbolic.Expression
	if quantity == "" {
		computed, err := u.Quantity()
		if err != nil {
			return nil, err
		}
		terms = computed
	} else {
		parsed, err := exprCache.Get(load().underscored(quantity))
		if err != nil {
			return nil, err
		}
		terms = parsed
	}
	parts := make([]string, 0, terms.Len())
	for _, term := range terms.Terms() {
		if term.Base == "1" {
			continue
		}
		name := strings.ReplaceAll(term.Base, "_", " ")
		unit, err := CanonicalUnit(system, name)
		if err != nil {
			return nil, err
		}
		parts = append(parts, raiseGroup(unit, term.Exponent))
	}
	if len(parts) == 0 {
		return NewUnit("1")
	}
	combined, err := symbolic.FromParts(parts)
	if err != nil {
		return nil, err
	}
	return NewUnit(combined.Format())
}

// ConvertTo computes the numeric factor that converts a quantity in
// this unit to the given target unit.
func (u *Unit) ConvertTo(target string) (float64, error) {
	return ConversionFactor(u.Format(), target)
}
