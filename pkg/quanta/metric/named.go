package metric

import (
	"math"
	"math/big"
	"strings"
	"sync"

	"github.com/sambeau/quanta/pkg/quanta/errors"
	"github.com/sambeau/quanta/pkg/quanta/symbolic"
)

// NamedUnit is a single named unit: a metric prefix applied to a base
// unit. Instances are singletons keyed by their canonical symbol, so
// repeated lookups of 'km' and 'kilometer' return the same instance.
type NamedUnit struct {
	Prefix   Prefix
	Base     BaseUnit
	Name     string
	Symbol   string
	Scale    float64
	Quantity string

	mu         sync.Mutex
	tiers      *SystemTiers
	dimensions Dimensions
	norm       map[string]*NamedUnit
	reductions map[string]*Reduction
}

// SystemTiers classifies a named unit's relationship to each metric
// system. Fundamental units are the canonical unit of their quantity;
// defined units share a base unit with the canonical unit; allowed
// units interoperate with the system. A unit defined in no system is
// allowed in all of them.
type SystemTiers struct {
	Fundamental []string
	Defined     []string
	Allowed     []string
}

var (
	namedMu    sync.RWMutex
	namedUnits = map[string]*NamedUnit{}
)

// Named returns the named unit for the given string, creating and
// registering it on first use.
func Named(unit string) (*NamedUnit, error) {
	key := normalizeUnit(unit)
	namedMu.RLock()
	existing, ok := namedUnits[key]
	namedMu.RUnlock()
	if ok {
		return existing, nil
	}
	def, ok := lookupNamed(unit)
	if !ok {
		return nil, unknownUnit(unit)
	}
	u := &NamedUnit{
		Prefix:     def.Prefix,
		Base:       def.Base,
		Name:       def.Prefix.Name + def.Base.Name,
		Symbol:     def.Prefix.Symbol + def.Base.Symbol,
		Scale:      def.Prefix.Factor,
		Quantity:   def.Base.Quantity,
		norm:       map[string]*NamedUnit{},
		reductions: map[string]*Reduction{},
	}
	namedMu.Lock()
	defer namedMu.Unlock()
	if existing, ok := namedUnits[normalizeUnit(u.Symbol)]; ok {
		namedUnits[key] = existing
		return existing, nil
	}
	for _, alias := range []string{key, normalizeUnit(u.Symbol), normalizeUnit(u.Name)} {
		namedUnits[alias] = u
	}
	return u, nil
}

// unknownUnit builds the parsing error for an unrecognized unit,
// including a fuzzy-match hint when a close candidate exists.
func unknownUnit(unit string) error {
	r := load()
	candidates := make([]string, 0, len(r.units)*2)
	for _, base := range r.units {
		candidates = append(candidates, base.Symbol, base.Name)
	}
	return errors.NewUnknownUnit(unit, candidates)
}

// Equal reports whether two named units have the same prefix and base
// unit.
func (u *NamedUnit) Equal(other *NamedUnit) bool {
	return u.Prefix == other.Prefix && u.Base == other.Base
}

func (u *NamedUnit) String() string {
	return "'" + u.Name + " | " + u.Symbol + "'"
}

// IsFundamentalIn reports whether this unit is the canonical unit of
// its quantity in the given system.
func (u *NamedUnit) IsFundamentalIn(system string) bool {
	canonical, err := CanonicalUnit(system, u.Quantity)
	if err != nil {
		return false
	}
	return u.Symbol == canonical || u.Name == canonical
}

// IsDefinedIn reports whether this unit formally belongs to the given
// system: it is either the canonical unit of its quantity or a scaled
// form of it.
func (u *NamedUnit) IsDefinedIn(system string) bool {
	if u.IsFundamentalIn(system) {
		return true
	}
	canonical, err := CanonicalUnit(system, u.Quantity)
	if err != nil {
		return false
	}
	reference, err := Named(canonical)
	if err != nil {
		return false
	}
	return u.Base == reference.Base
}

// IsAllowedIn reports whether this unit interoperates with units of
// the given system.
func (u *NamedUnit) IsAllowedIn(system string) bool {
	var defined []string
	for _, s := range Systems {
		if u.IsDefinedIn(s) {
			defined = append(defined, s)
		}
	}
	if len(defined) == 0 {
		return true
	}
	for _, s := range defined {
		if s == system {
			return true
		}
	}
	return false
}

// Tiers returns this unit's classification in every metric system.
func (u *NamedUnit) Tiers() *SystemTiers {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.tiers != nil {
		return u.tiers
	}
	tiers := &SystemTiers{}
	for _, system := range Systems {
		if u.IsFundamentalIn(system) {
			tiers.Fundamental = append(tiers.Fundamental, system)
		}
		if u.IsDefinedIn(system) {
			tiers.Defined = append(tiers.Defined, system)
		}
		if u.IsAllowedIn(system) {
			tiers.Allowed = append(tiers.Allowed, system)
		}
	}
	u.tiers = tiers
	return tiers
}

// Dimensions returns this unit's dimension in each metric system. A
// unit defined in a single system has a nil dimension in the others; a
// unit defined in no system carries its quantity's dimension in all of
// them.
func (u *NamedUnit) Dimensions() (Dimensions, error) {
	u.mu.Lock()
	cached := u.dimensions
	u.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	table, err := load().property(propDimensions, u.Quantity)
	if err != nil {
		return nil, err
	}
	defined := u.Tiers().Defined
	dimensions := Dimensions{}
	for _, system := range Systems {
		dimensions[system] = nil
	}
	include := func(system string) error {
		parsed, err := NewDimension(table[system])
		if err != nil {
			return err
		}
		dimensions[system] = parsed
		return nil
	}
	if len(defined) == 0 || len(defined) == len(Systems) {
		for _, system := range Systems {
			if err := include(system); err != nil {
				return nil, err
			}
		}
	} else {
		if err := include(defined[0]); err != nil {
			return nil, err
		}
	}
	u.mu.Lock()
	u.dimensions = dimensions
	u.mu.Unlock()
	return dimensions, nil
}

// Norm returns the canonical unit of this unit's quantity in the given
// system.
func (u *NamedUnit) Norm(system string) (*NamedUnit, error) {
	u.mu.Lock()
	cached, ok := u.norm[system]
	u.mu.Unlock()
	if ok {
		return cached, nil
	}
	canonical, err := CanonicalUnit(system, u.Quantity)
	if err != nil {
		return nil, err
	}
	named, err := Named(canonical)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	u.norm[system] = named
	u.mu.Unlock()
	return named, nil
}

// Decomposed returns this unit's representation in base units of the
// first system in which it is fundamental, or nil when it is
// fundamental in no system.
func (u *NamedUnit) Decomposed() ([]symbolic.Term, error) {
	for _, system := range Systems {
		if u.IsFundamentalIn(system) {
			return u.decompose(system)
		}
	}
	return nil, nil
}

func (u *NamedUnit) decompose(system string) ([]symbolic.Term, error) {
	if !u.IsDefinedIn(system) {
		return nil, nil
	}
	dimensions, err := u.Dimensions()
	if err != nil {
		return nil, err
	}
	dimension := dimensions[system]
	if dimension == nil {
		return nil, nil
	}
	if dimension.Len() == 1 {
		term, err := symbolic.NewTerm(u.Symbol)
		if err != nil {
			return nil, err
		}
		return []symbolic.Term{term}, nil
	}
	return u.baseTerms(system, dimension)
}

// baseTerms maps each term of a dimension to the canonical unit of the
// corresponding base quantity.
func (u *NamedUnit) baseTerms(system string, dimension *Dimension) ([]symbolic.Term, error) {
	r := load()
	var terms []symbolic.Term
	for _, dimTerm := range dimension.Expression().Terms() {
		if dimTerm.Base == "1" {
			continue
		}
		quantity, ok := baseQuantityFor(r, dimTerm.Base)
		if !ok {
			return nil, errors.New("SYS-0004", map[string]any{
				"Unit": u.Symbol, "System": system,
			})
		}
		unit, err := CanonicalUnit(system, quantity)
		if err != nil {
			return nil, err
		}
		term, err := symbolic.NewTermWith(nil, unit, dimTerm.Exponent)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return terms, nil
}

func baseQuantityFor(r *reference, dimension string) (string, bool) {
	for _, base := range r.baseQuantities {
		if base.Dimension == dimension {
			return base.Name, true
		}
	}
	return "", false
}

// ResolveSystem determines the appropriate metric system for reducing
// this unit when the caller does not name one.
func (u *NamedUnit) ResolveSystem(system string) (string, error) {
	if IsSystem(system) {
		return strings.ToLower(system), nil
	}
	fundamental := u.Tiers().Fundamental
	if len(fundamental) == 1 {
		return fundamental[0], nil
	}
	dimensions, err := u.Dimensions()
	if err != nil {
		return "", err
	}
	if dimensions["mks"].Equal(dimensions["cgs"]) {
		return "mks", nil
	}
	if dimensions["mks"] == nil {
		return "cgs", nil
	}
	if dimensions["cgs"] == nil {
		return "mks", nil
	}
	return "", errors.New("SYS-0001", map[string]any{"Unit": u.Symbol})
}

// Reduce converts this unit to base units of the given system, if
// possible. Passing an empty system lets this unit resolve one. The
// result is nil when this unit is not defined in the resolved system.
func (u *NamedUnit) Reduce(system string) (*Reduction, error) {
	resolved, err := u.ResolveSystem(system)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	cached, ok := u.reductions[resolved]
	u.mu.Unlock()
	if ok {
		return cached, nil
	}
	reduction, err := u.reduce(resolved)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	u.reductions[resolved] = reduction
	u.mu.Unlock()
	return reduction, nil
}

func (u *NamedUnit) reduce(system string) (*Reduction, error) {
	if !u.IsDefinedIn(system) {
		return nil, nil
	}
	dimensions, err := u.Dimensions()
	if err != nil {
		return nil, err
	}
	dimension := dimensions[system]
	if dimension == nil {
		return nil, nil
	}
	if dimension.Len() == 1 {
		canonical, err := CanonicalUnit(system, u.Quantity)
		if err != nil {
			return nil, err
		}
		if u.Symbol == canonical {
			term, err := symbolic.NewTerm(u.Symbol)
			if err != nil {
				return nil, err
			}
			return newReduction([]symbolic.Term{term}, 1.0, system), nil
		}
		reference, err := Named(canonical)
		if err != nil {
			return nil, err
		}
		scale, err := u.RatioTo(reference)
		if err != nil {
			return nil, err
		}
		term, err := symbolic.NewTerm(canonical)
		if err != nil {
			return nil, err
		}
		return newReduction([]symbolic.Term{term}, scale, system), nil
	}
	terms, err := u.baseTerms(system, dimension)
	if err != nil {
		return nil, err
	}
	return newReduction(terms, u.Scale, system), nil
}

// RatioTo computes the magnitude of this unit relative to another unit
// with the same base unit, e.g. m to cm is 100. It is not a general
// unit conversion: units with different base units are rejected even
// when they measure the same quantity.
func (u *NamedUnit) RatioTo(other *NamedUnit) (float64, error) {
	if u.Equal(other) {
		return 1.0, nil
	}
	if u.Base != other.Base {
		return 0, errors.New("UNIT-0002", map[string]any{
			"First": u.Symbol, "Second": other.Symbol,
		})
	}
	return u.Scale / other.Scale, nil
}

// Ratio computes the relative magnitude of two named units given their
// string forms.
func Ratio(this, that string) (float64, error) {
	u0, err := Named(this)
	if err != nil {
		return 0, err
	}
	u1, err := Named(that)
	if err != nil {
		return 0, err
	}
	return u0.RatioTo(u1)
}

// Reduction is a unit expressed in base units of a metric system,
// together with the numeric scale relating the two.
type Reduction struct {
	expr   *symbolic.Expression
	Scale  float64
	System string
}

func newReduction(terms []symbolic.Term, scale float64, system string) *Reduction {
	scaled := make([]symbolic.Term, 0, len(terms)+1)
	scaled = append(scaled, symbolic.NewConstant(ratFromFloat(scale)))
	scaled = append(scaled, terms...)
	return &Reduction{
		expr:   symbolic.FromTerms(scaled),
		Scale:  scale,
		System: system,
	}
}

// Units returns the unit terms of this reduction, without the scale.
func (r *Reduction) Units() []symbolic.Term {
	var units []symbolic.Term
	for _, term := range r.expr.Terms() {
		if term.Base != "1" {
			units = append(units, term)
		}
	}
	return units
}

// Mul scales this reduction by the given factor.
func (r *Reduction) Mul(factor float64) *Reduction {
	return newReduction(r.Units(), r.Scale*factor, r.System)
}

// Pow raises this reduction to the given power.
func (r *Reduction) Pow(exponent *big.Rat) (*Reduction, error) {
	raised, err := r.expr.Pow(exponent)
	if err != nil {
		return nil, err
	}
	e, _ := exponent.Float64()
	var units []symbolic.Term
	for _, term := range raised.Terms() {
		if term.Base != "1" {
			units = append(units, term)
		}
	}
	return newReduction(units, math.Pow(r.Scale, e), r.System), nil
}

func (r *Reduction) String() string {
	return r.expr.Format() + " [" + r.System + "]"
}

func ratFromFloat(f float64) *big.Rat {
	rat := new(big.Rat)
	if rat.SetFloat64(f) == nil {
		return big.NewRat(1, 1)
	}
	return rat
}
